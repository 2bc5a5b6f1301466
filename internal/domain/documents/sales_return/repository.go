package sales_return

import (
	"context"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
	"pharmaledger/internal/domain/documents/sale"
)

// Repository defines persistence for sales returns.
type Repository interface {
	Create(ctx context.Context, r *SalesReturn) error
	GetByID(ctx context.Context, id id.ID) (*SalesReturn, error)

	// ReturnedQuantities sums returned quantity per product over every
	// return of the sale, including ones written in the current transaction.
	ReturnedQuantities(ctx context.Context, saleID id.ID) (map[id.ID]types.Quantity, error)

	List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*SalesReturn], error)
}

// SaleStore is the part of the sale repository the return flow needs.
type SaleStore interface {
	GetForUpdate(ctx context.Context, id id.ID) (*sale.Sale, error)
	UpdateStatus(ctx context.Context, id id.ID, status sale.Status) error
}
