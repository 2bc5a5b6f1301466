package document_repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/documents/purchase"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const purchaseInvoiceConstraint = "ux_doc_purchases_invoice"

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	*BaseDocumentRepo[*purchase.Purchase]
	items itemTable[purchase.Item]
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager, "doc_purchases", "purchase",
			func() *purchase.Purchase { return &purchase.Purchase{} }),
		items: newItemTable[purchase.Item](txManager, "doc_purchase_items", "purchase_id"),
	}
}

// Create inserts the header and its items. The (supplier, invoice) unique
// constraint surfaces as a Duplicate on invoice_number.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	if err := r.CreateHeader(ctx, p, "number", p.Number); err != nil {
		return invoiceConflict(err, p.InvoiceNumber)
	}
	return r.items.insert(ctx, p.Items)
}

func (r *PurchaseRepo) withItems(ctx context.Context, p *purchase.Purchase, err error) (*purchase.Purchase, error) {
	if err != nil {
		return nil, err
	}
	if p.Items, err = r.items.load(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PurchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	p, err := r.GetHeader(ctx, purchaseID)
	return r.withItems(ctx, p, err)
}

func (r *PurchaseRepo) GetForUpdate(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	p, err := r.GetHeaderForUpdate(ctx, purchaseID)
	return r.withItems(ctx, p, err)
}

// invoiceConflict reports a violation of the (supplier, invoice) constraint
// as a Duplicate on the invoice number; other errors pass through.
func invoiceConflict(err error, invoiceNumber string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == purchaseInvoiceConstraint {
		return apperror.NewDuplicate("purchase", "invoice_number", invoiceNumber).WithCause(err)
	}
	return err
}

var _ purchase.Repository = (*PurchaseRepo)(nil)
