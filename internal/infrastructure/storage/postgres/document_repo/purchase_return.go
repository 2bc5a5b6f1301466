package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/documents/purchase"
	"pharmaledger/internal/domain/documents/purchase_return"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// PurchaseReturnRepo implements purchase_return.Repository.
type PurchaseReturnRepo struct {
	*BaseDocumentRepo[*purchase_return.PurchaseReturn]
	items itemTable[purchase_return.Item]
}

// NewPurchaseReturnRepo creates a new purchase return repository.
func NewPurchaseReturnRepo(txManager *postgres.TxManager) *PurchaseReturnRepo {
	return &PurchaseReturnRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager, "doc_purchase_returns", "purchase_return",
			func() *purchase_return.PurchaseReturn { return &purchase_return.PurchaseReturn{} }),
		items: newItemTable[purchase_return.Item](txManager, "doc_purchase_return_items", "return_id"),
	}
}

func (r *PurchaseReturnRepo) Create(ctx context.Context, ret *purchase_return.PurchaseReturn) error {
	if err := r.CreateHeader(ctx, ret, "number", ret.Number); err != nil {
		return err
	}
	return r.items.insert(ctx, ret.Items)
}

func (r *PurchaseReturnRepo) GetByID(ctx context.Context, returnID id.ID) (*purchase_return.PurchaseReturn, error) {
	ret, err := r.GetHeader(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if ret.Items, err = r.items.load(ctx, ret.ID); err != nil {
		return nil, err
	}
	return ret, nil
}

// CountByPurchase implements purchase.ReturnCounter.
func (r *PurchaseReturnRepo) CountByPurchase(ctx context.Context, purchaseID id.ID) (int, error) {
	sql, args, err := r.Builder().Select("COUNT(*)").
		From(r.tableName).
		Where(squirrel.Eq{"purchase_id": purchaseID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count purchase returns: %w", err)
	}
	return n, nil
}

var (
	_ purchase_return.Repository = (*PurchaseReturnRepo)(nil)
	_ purchase.ReturnCounter     = (*PurchaseReturnRepo)(nil)
)
