package stock

import (
	"context"

	"pharmaledger/internal/core/id"
)

// Repository defines persistence for inventory records.
type Repository interface {
	// Get returns the record, found=false when the product has no stock row yet.
	Get(ctx context.Context, productID id.ID) (rec *Record, found bool, err error)

	// GetForUpdate is Get with a row lock held until the transaction ends.
	// An implementation may create a zero row to have something to lock.
	GetForUpdate(ctx context.Context, productID id.ID) (rec *Record, found bool, err error)

	// Upsert inserts or replaces the record for rec.ProductID.
	Upsert(ctx context.Context, rec *Record) error

	// List returns records ordered by product.
	List(ctx context.Context, filter ListFilter) ([]Record, error)
}

// ProductChecker verifies product references for manual adjustments.
type ProductChecker interface {
	Exists(ctx context.Context, productID id.ID) (bool, error)
}
