// Package supplier_payment provides the SupplierPayment document.
package supplier_payment

import (
	"context"

	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
)

// SupplierPayment is money paid to a supplier out of an account.
type SupplierPayment struct {
	entity.Document

	SupplierID    id.ID       `db:"supplier_id" json:"supplierId"`
	AccountID     id.ID       `db:"account_id" json:"accountId"`
	Amount        types.Money `db:"amount" json:"amount"`
	PaymentMethod string      `db:"payment_method" json:"paymentMethod,omitempty"`
	Reference     string      `db:"reference" json:"reference,omitempty"`

	// LedgerEntryID is the payment row appended to the supplier ledger.
	LedgerEntryID *id.ID `db:"ledger_entry_id" json:"ledgerEntryId,omitempty"`
}

// Repository defines persistence for supplier payments.
type Repository interface {
	Create(ctx context.Context, p *SupplierPayment) error
	GetByID(ctx context.Context, id id.ID) (*SupplierPayment, error)
	List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*SupplierPayment], error)
}
