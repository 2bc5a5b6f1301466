// Package supplier_ledger is the supplier ledger engine: an append-only list
// of debit/credit rows per supplier plus the denormalized supplier balance.
package supplier_ledger

import (
	"context"
	"time"

	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// EntryType classifies ledger rows.
type EntryType string

const (
	EntryOpeningBalance EntryType = "opening_balance"
	EntryPurchase       EntryType = "purchase"
	EntryPayment        EntryType = "payment"
	EntryReturn         EntryType = "return"
	EntryAdjustment     EntryType = "adjustment"
)

// Supplier is a vendor the pharmacy owes money to.
// Payable = OpeningBalance + CurrentBalance. OpeningBalance never changes
// after registration.
type Supplier struct {
	entity.Catalog

	ContactPerson string `db:"contact_person" json:"contactPerson,omitempty"`
	Phone         string `db:"phone" json:"phone,omitempty"`
	Email         string `db:"email" json:"email,omitempty"`
	Address       string `db:"address" json:"address,omitempty"`

	OpeningBalance types.Money `db:"opening_balance" json:"openingBalance"`
	CurrentBalance types.Money `db:"current_balance" json:"currentBalance"`
	TotalPurchases types.Money `db:"total_purchases" json:"totalPurchases"`
	TotalPayments  types.Money `db:"total_payments" json:"totalPayments"`
}

// Payable is the amount currently owed to the supplier.
func (s *Supplier) Payable() types.Money {
	return s.OpeningBalance.Add(s.CurrentBalance)
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}
	return entity.ValidateMoney("openingBalance", s.OpeningBalance)
}

func (s *Supplier) profile() map[string]any {
	return map[string]any{
		"name":          s.Name,
		"code":          s.Code,
		"contactPerson": s.ContactPerson,
		"phone":         s.Phone,
		"email":         s.Email,
		"address":       s.Address,
	}
}

// Entry is one immutable ledger row. Exactly one of Debit/Credit is nonzero
// by convention. Balance is the payable right after this row was appended.
type Entry struct {
	ID          id.ID       `db:"id" json:"id"`
	SupplierID  id.ID       `db:"supplier_id" json:"supplierId"`
	Type        EntryType   `db:"entry_type" json:"type"`
	Debit       types.Money `db:"debit" json:"debit"`
	Credit      types.Money `db:"credit" json:"credit"`
	Balance     types.Money `db:"balance" json:"balance"`
	ReferenceID *id.ID      `db:"reference_id" json:"referenceId,omitempty"`
	Description string      `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}

// Signed returns debit - credit.
func (e *Entry) Signed() types.Money {
	return e.Debit.Sub(e.Credit)
}

// Statement is a supplier with its ledger in insertion order.
type Statement struct {
	Supplier *Supplier   `json:"supplier"`
	Entries  []Entry     `json:"entries"`
	Payable  types.Money `json:"payable"`
}

// ListFilter narrows supplier listings.
type ListFilter struct {
	Search string
	// WithBalanceOnly keeps suppliers with a nonzero payable.
	WithBalanceOnly bool
	Limit           int
	Offset          int
}
