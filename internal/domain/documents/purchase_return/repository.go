package purchase_return

import (
	"context"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
	"pharmaledger/internal/domain/documents/purchase"
)

// Repository defines persistence for purchase returns.
type Repository interface {
	Create(ctx context.Context, r *PurchaseReturn) error
	GetByID(ctx context.Context, id id.ID) (*PurchaseReturn, error)

	// CountByPurchase reports how many returns reference the purchase.
	CountByPurchase(ctx context.Context, purchaseID id.ID) (int, error)

	List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*PurchaseReturn], error)
}

// PurchaseReader loads the purchase being returned against.
type PurchaseReader interface {
	GetByID(ctx context.Context, id id.ID) (*purchase.Purchase, error)
}
