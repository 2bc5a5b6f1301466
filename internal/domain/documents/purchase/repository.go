package purchase

import (
	"context"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
)

// Repository defines persistence for purchases.
type Repository interface {
	// Create inserts the header and its items. A repeated invoice number for
	// the same supplier is an apperror Duplicate.
	Create(ctx context.Context, p *Purchase) error

	GetByID(ctx context.Context, id id.ID) (*Purchase, error)

	// GetForUpdate is GetByID with the header row locked.
	GetForUpdate(ctx context.Context, id id.ID) (*Purchase, error)

	// Delete removes the header and, by cascade, its items.
	Delete(ctx context.Context, id id.ID) error

	List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Purchase], error)
}

// ReturnCounter reports purchase returns that reference a purchase.
type ReturnCounter interface {
	CountByPurchase(ctx context.Context, purchaseID id.ID) (int, error)
}
