package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/documents/sale"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale]
	items itemTable[sale.Item]
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager, "doc_sales", "sale",
			func() *sale.Sale { return &sale.Sale{} }),
		items: newItemTable[sale.Item](txManager, "doc_sale_items", "sale_id"),
	}
}

// Create inserts the header and its items.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	if err := r.CreateHeader(ctx, s, "number", s.Number); err != nil {
		return err
	}
	return r.items.insert(ctx, s.Items)
}

func (r *SaleRepo) withItems(ctx context.Context, s *sale.Sale, err error) (*sale.Sale, error) {
	if err != nil {
		return nil, err
	}
	if s.Items, err = r.items.load(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID returns the sale with items.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	s, err := r.GetHeader(ctx, saleID)
	return r.withItems(ctx, s, err)
}

// GetForUpdate locks the header and returns the sale with items.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	s, err := r.GetHeaderForUpdate(ctx, saleID)
	return r.withItems(ctx, s, err)
}

func (r *SaleRepo) UpdateStatus(ctx context.Context, saleID id.ID, status sale.Status) error {
	sql, args, err := r.Builder().Update(r.tableName).
		Set("status", status).
		Where(squirrel.Eq{"id": saleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}

var _ sale.Repository = (*SaleRepo)(nil)
