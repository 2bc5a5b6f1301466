package supplier_ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/core/types"
	"pharmaledger/pkg/logger"
)

// Auditor records supplier registration and profile changes.
type Auditor interface {
	LogCreate(ctx context.Context, entityType string, entityID id.ID, entityName string, payload map[string]any)
	LogUpdate(ctx context.Context, entityType string, entityID id.ID, entityName string, old, changes map[string]any)
}

// Engine appends ledger rows and keeps the supplier aggregate in step.
//
// RecordPurchase, RecordPayment and ReversePurchase run inside the caller's
// transaction: the supplier row is locked first, and every balance snapshot
// is computed from that locked row.
type Engine struct {
	repo    Repository
	txm     tx.Manager
	auditor Auditor
}

// NewEngine creates a new supplier ledger engine.
func NewEngine(repo Repository, txm tx.Manager, auditor Auditor) *Engine {
	return &Engine{repo: repo, txm: txm, auditor: auditor}
}

// RegisterInput describes a new supplier.
type RegisterInput struct {
	Code           string
	Name           string
	ContactPerson  string
	Phone          string
	Email          string
	Address        string
	OpeningBalance types.Money
}

// RegisterSupplier creates the supplier and, when the opening balance is
// nonzero, its opening_balance row.
func (e *Engine) RegisterSupplier(ctx context.Context, in RegisterInput) (*Supplier, error) {
	s := &Supplier{
		Catalog:        entity.NewCatalog(in.Code, in.Name),
		ContactPerson:  strings.TrimSpace(in.ContactPerson),
		Phone:          strings.TrimSpace(in.Phone),
		Email:          strings.TrimSpace(in.Email),
		Address:        strings.TrimSpace(in.Address),
		OpeningBalance: in.OpeningBalance,
		CurrentBalance: types.Zero(),
		TotalPurchases: types.Zero(),
		TotalPayments:  types.Zero(),
	}
	if err := s.Validate(ctx); err != nil {
		return nil, err
	}

	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := e.repo.CreateSupplier(ctx, s); err != nil {
			return fmt.Errorf("create supplier: %w", err)
		}
		if s.OpeningBalance.IsZero() {
			return nil
		}

		entry := e.newEntry(s.ID, EntryOpeningBalance, nil, "Opening balance")
		if s.OpeningBalance.IsPositive() {
			entry.Debit = s.OpeningBalance
		} else {
			entry.Credit = s.OpeningBalance.Neg()
		}
		entry.Balance = s.Payable()
		return e.repo.AppendEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	if e.auditor != nil {
		e.auditor.LogCreate(ctx, "supplier", s.ID, s.Name, map[string]any{
			"openingBalance": s.OpeningBalance,
		})
	}
	logger.Info(ctx, "supplier registered", "supplier_id", s.ID, "opening_balance", s.OpeningBalance)

	return s, nil
}

// UpdateInput carries the profile fields to change; nil means unchanged.
// Balances cannot be updated this way.
type UpdateInput struct {
	Code          *string
	Name          *string
	ContactPerson *string
	Phone         *string
	Email         *string
	Address       *string
}

func (in UpdateInput) changes() map[string]any {
	out := make(map[string]any)
	set := func(key string, v *string) {
		if v != nil {
			out[key] = strings.TrimSpace(*v)
		}
	}
	set("code", in.Code)
	set("name", in.Name)
	set("contactPerson", in.ContactPerson)
	set("phone", in.Phone)
	set("email", in.Email)
	set("address", in.Address)
	return out
}

// UpdateSupplier changes profile fields and audits the diff.
func (e *Engine) UpdateSupplier(ctx context.Context, supplierID id.ID, in UpdateInput) (*Supplier, error) {
	changes := in.changes()

	var (
		updated *Supplier
		before  map[string]any
	)
	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := e.repo.GetSupplierForUpdate(ctx, supplierID)
		if err != nil {
			return err
		}
		before = s.profile()

		for key, v := range changes {
			val := v.(string)
			switch key {
			case "code":
				s.Code = val
			case "name":
				s.Name = val
			case "contactPerson":
				s.ContactPerson = val
			case "phone":
				s.Phone = val
			case "email":
				s.Email = val
			case "address":
				s.Address = val
			}
		}
		if err := s.Validate(ctx); err != nil {
			return err
		}
		s.Touch()

		if err := e.repo.UpdateProfile(ctx, s); err != nil {
			return fmt.Errorf("update supplier: %w", err)
		}
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.auditor != nil {
		e.auditor.LogUpdate(ctx, "supplier", updated.ID, updated.Name, before, changes)
	}
	return updated, nil
}

// PurchaseEntry is what a purchase contributes to the ledger.
type PurchaseEntry struct {
	SupplierID    id.ID
	PurchaseID    id.ID
	InvoiceNumber string
	TotalAmount   types.Money
	PaidAmount    types.Money
}

// RecordPurchase appends a purchase debit and, when something was paid up
// front, a payment credit referencing the same purchase.
func (e *Engine) RecordPurchase(ctx context.Context, p PurchaseEntry) error {
	s, err := e.repo.GetSupplierForUpdate(ctx, p.SupplierID)
	if err != nil {
		return err
	}

	ref := p.PurchaseID
	debit := e.newEntry(s.ID, EntryPurchase, &ref, fmt.Sprintf("Purchase %s", p.InvoiceNumber))
	debit.Debit = p.TotalAmount
	s.CurrentBalance = s.CurrentBalance.Add(p.TotalAmount)
	s.TotalPurchases = s.TotalPurchases.Add(p.TotalAmount)
	debit.Balance = s.Payable()
	if err := e.repo.AppendEntry(ctx, debit); err != nil {
		return fmt.Errorf("append purchase entry: %w", err)
	}

	if p.PaidAmount.IsPositive() {
		credit := e.newEntry(s.ID, EntryPayment, &ref, fmt.Sprintf("Payment on purchase %s", p.InvoiceNumber))
		credit.Credit = p.PaidAmount
		s.CurrentBalance = s.CurrentBalance.Sub(p.PaidAmount)
		s.TotalPayments = s.TotalPayments.Add(p.PaidAmount)
		credit.Balance = s.Payable()
		if err := e.repo.AppendEntry(ctx, credit); err != nil {
			return fmt.Errorf("append payment entry: %w", err)
		}
	}

	return e.repo.UpdateBalances(ctx, s)
}

// RecordPayment appends one payment credit. The caller has already verified
// the source account covers the amount.
func (e *Engine) RecordPayment(ctx context.Context, supplierID, paymentID id.ID, amount types.Money, description string) (*Entry, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").WithDetail("field", "amount")
	}

	s, err := e.repo.GetSupplierForUpdate(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	if description == "" {
		description = "Payment"
	}
	ref := paymentID
	entry := e.newEntry(s.ID, EntryPayment, &ref, description)
	entry.Credit = amount
	s.CurrentBalance = s.CurrentBalance.Sub(amount)
	s.TotalPayments = s.TotalPayments.Add(amount)
	entry.Balance = s.Payable()

	if err := e.repo.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("append payment entry: %w", err)
	}
	if err := e.repo.UpdateBalances(ctx, s); err != nil {
		return nil, err
	}
	return entry, nil
}

// ReversePurchase deletes the rows a purchase produced and backs its amounts
// out of the supplier aggregate. The counters are floored at zero;
// currentBalance is reversed exactly so it keeps matching the remaining rows.
func (e *Engine) ReversePurchase(ctx context.Context, p PurchaseEntry) error {
	s, err := e.repo.GetSupplierForUpdate(ctx, p.SupplierID)
	if err != nil {
		return err
	}

	deleted, err := e.repo.DeleteEntriesByReference(ctx, s.ID, p.PurchaseID)
	if err != nil {
		return fmt.Errorf("delete purchase entries: %w", err)
	}

	s.TotalPurchases = types.FloorZero(s.TotalPurchases.Sub(p.TotalAmount))
	s.TotalPayments = types.FloorZero(s.TotalPayments.Sub(p.PaidAmount))
	// Not floored: the remaining ledger rows must still sum to the balance.
	s.CurrentBalance = s.CurrentBalance.Sub(p.TotalAmount.Sub(p.PaidAmount))

	logger.Debug(ctx, "purchase reversed in supplier ledger",
		"supplier_id", s.ID,
		"purchase_id", p.PurchaseID,
		"entries_deleted", deleted,
	)
	return e.repo.UpdateBalances(ctx, s)
}

// GetSupplier returns the supplier.
func (e *Engine) GetSupplier(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return e.repo.GetSupplier(ctx, supplierID)
}

// ListSuppliers returns suppliers matching filter.
func (e *Engine) ListSuppliers(ctx context.Context, filter ListFilter) ([]Supplier, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return e.repo.ListSuppliers(ctx, filter)
}

// Statement returns the supplier with every ledger row in insertion order.
func (e *Engine) Statement(ctx context.Context, supplierID id.ID) (*Statement, error) {
	s, err := e.repo.GetSupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	entries, err := e.repo.ListEntries(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return &Statement{Supplier: s, Entries: entries, Payable: s.Payable()}, nil
}

func (e *Engine) newEntry(supplierID id.ID, typ EntryType, ref *id.ID, description string) *Entry {
	return &Entry{
		ID:          id.New(),
		SupplierID:  supplierID,
		Type:        typ,
		Debit:       types.Zero(),
		Credit:      types.Zero(),
		ReferenceID: ref,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}
