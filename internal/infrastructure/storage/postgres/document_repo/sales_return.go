package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/documents/sales_return"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// SalesReturnRepo implements sales_return.Repository.
type SalesReturnRepo struct {
	*BaseDocumentRepo[*sales_return.SalesReturn]
	items itemTable[sales_return.Item]
}

// NewSalesReturnRepo creates a new sales return repository.
func NewSalesReturnRepo(txManager *postgres.TxManager) *SalesReturnRepo {
	return &SalesReturnRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager, "doc_sales_returns", "sales_return",
			func() *sales_return.SalesReturn { return &sales_return.SalesReturn{} }),
		items: newItemTable[sales_return.Item](txManager, "doc_sales_return_items", "return_id"),
	}
}

func (r *SalesReturnRepo) Create(ctx context.Context, ret *sales_return.SalesReturn) error {
	if err := r.CreateHeader(ctx, ret, "number", ret.Number); err != nil {
		return err
	}
	return r.items.insert(ctx, ret.Items)
}

func (r *SalesReturnRepo) GetByID(ctx context.Context, returnID id.ID) (*sales_return.SalesReturn, error) {
	ret, err := r.GetHeader(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if ret.Items, err = r.items.load(ctx, ret.ID); err != nil {
		return nil, err
	}
	return ret, nil
}

// ReturnedQuantities sums item quantities per product over every return of the sale.
func (r *SalesReturnRepo) ReturnedQuantities(ctx context.Context, saleID id.ID) (map[id.ID]types.Quantity, error) {
	sql, args, err := returnedQuantities(r.Builder(), saleID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("sum returned quantities: %w", err)
	}
	defer rows.Close()

	out := make(map[id.ID]types.Quantity)
	for rows.Next() {
		var (
			productID id.ID
			qty       int64
		)
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, fmt.Errorf("scan returned quantity: %w", err)
		}
		out[productID] = types.Quantity(qty)
	}
	return out, rows.Err()
}

func returnedQuantities(b squirrel.StatementBuilderType, saleID id.ID) squirrel.SelectBuilder {
	return b.Select("i.product_id", "SUM(i.quantity)::bigint").
		From("doc_sales_return_items i").
		Join("doc_sales_returns h ON h.id = i.return_id").
		Where(squirrel.Eq{"h.sale_id": saleID}).
		GroupBy("i.product_id")
}

var _ sales_return.Repository = (*SalesReturnRepo)(nil)
