package supplier_ledger

import (
	"context"

	"pharmaledger/internal/core/id"
)

// Repository defines persistence for suppliers and their ledger rows.
type Repository interface {
	CreateSupplier(ctx context.Context, s *Supplier) error

	// GetSupplier returns apperror NotFound when the supplier does not exist.
	GetSupplier(ctx context.Context, id id.ID) (*Supplier, error)

	// GetSupplierForUpdate is GetSupplier with a row lock.
	GetSupplierForUpdate(ctx context.Context, id id.ID) (*Supplier, error)

	// UpdateBalances writes currentBalance, totalPurchases and totalPayments.
	UpdateBalances(ctx context.Context, s *Supplier) error

	// UpdateProfile writes contact fields; balances are left untouched.
	UpdateProfile(ctx context.Context, s *Supplier) error

	ListSuppliers(ctx context.Context, filter ListFilter) ([]Supplier, error)

	AppendEntry(ctx context.Context, e *Entry) error

	// DeleteEntriesByReference removes the rows a purchase produced and
	// reports how many were deleted.
	DeleteEntriesByReference(ctx context.Context, supplierID, referenceID id.ID) (int64, error)

	// ListEntries returns the supplier's rows in insertion order.
	ListEntries(ctx context.Context, supplierID id.ID) ([]Entry, error)
}
