// Package reconcile re-derives the account, inventory and supplier-ledger
// invariants from stored state and reports every violation it finds.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/pkg/logger"
)

const pageSize = 200

// AccountLister lists every account.
type AccountLister interface {
	List(ctx context.Context) ([]account.BankAccount, error)
}

// StockLister pages through inventory records.
type StockLister interface {
	List(ctx context.Context, filter stock.ListFilter) ([]stock.Record, error)
}

// LedgerReader pages through suppliers and reads their ledger rows.
type LedgerReader interface {
	ListSuppliers(ctx context.Context, filter supplier_ledger.ListFilter) ([]supplier_ledger.Supplier, error)
	ListEntries(ctx context.Context, supplierID id.ID) ([]supplier_ledger.Entry, error)
}

// Violation is one broken invariant.
type Violation struct {
	Kind     string `json:"kind"`
	EntityID string `json:"entityId"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s %s: expected %s, got %s", v.Kind, v.EntityID, v.Expected, v.Actual)
}

// Report summarizes one verification pass.
type Report struct {
	AccountsChecked  int         `json:"accountsChecked"`
	RecordsChecked   int         `json:"recordsChecked"`
	SuppliersChecked int         `json:"suppliersChecked"`
	Violations       []Violation `json:"violations"`
}

// OK reports whether no violation was found.
func (r *Report) OK() bool { return len(r.Violations) == 0 }

// Err combines all violations into one error, nil when the report is clean.
func (r *Report) Err() error {
	var err error
	for _, v := range r.Violations {
		err = multierr.Append(err, v)
	}
	return err
}

// Verifier checks stored state against the consistency invariants.
type Verifier struct {
	accounts AccountLister
	stock    StockLister
	ledger   LedgerReader
	snapshot tx.Manager
}

// NewVerifier creates a verifier.
func NewVerifier(accounts AccountLister, stock StockLister, ledger LedgerReader) *Verifier {
	return &Verifier{accounts: accounts, stock: stock, ledger: ledger}
}

// WithSnapshot makes Run read everything inside one transaction of m, so a
// concurrent orchestrator cannot show up half-applied in the report.
func (v *Verifier) WithSnapshot(m tx.Manager) *Verifier {
	v.snapshot = m
	return v
}

// Run checks all three invariants. The returned error reports read failures
// only; violations are in the report.
func (v *Verifier) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	check := func(ctx context.Context) error {
		return multierr.Combine(
			v.checkAccounts(ctx, report),
			v.checkStock(ctx, report),
			v.checkLedger(ctx, report),
		)
	}

	var err error
	if v.snapshot != nil {
		err = v.snapshot.RunInTransaction(ctx, check)
	} else {
		err = check(ctx)
	}

	if len(report.Violations) > 0 {
		logger.Warn(ctx, "invariant violations found",
			"count", len(report.Violations),
			"accounts", report.AccountsChecked,
			"records", report.RecordsChecked,
			"suppliers", report.SuppliersChecked,
		)
	} else {
		logger.Info(ctx, "invariants hold",
			"accounts", report.AccountsChecked,
			"records", report.RecordsChecked,
			"suppliers", report.SuppliersChecked,
		)
	}
	return report, err
}

// currentBalance == openingBalance + totalDeposits - totalWithdrawals
func (v *Verifier) checkAccounts(ctx context.Context, report *Report) error {
	accounts, err := v.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	for i := range accounts {
		acc := &accounts[i]
		report.AccountsChecked++
		if acc.Balanced() {
			continue
		}
		expected := acc.OpeningBalance.Add(acc.TotalDeposits).Sub(acc.TotalWithdrawals)
		report.Violations = append(report.Violations, Violation{
			Kind:     "account_balance",
			EntityID: acc.ID.String(),
			Expected: expected.String(),
			Actual:   acc.CurrentBalance.String(),
		})
	}
	return nil
}

// quantity >= 0
func (v *Verifier) checkStock(ctx context.Context, report *Report) error {
	for offset := 0; ; offset += pageSize {
		records, err := v.stock.List(ctx, stock.ListFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return fmt.Errorf("list stock: %w", err)
		}
		for _, rec := range records {
			report.RecordsChecked++
			if rec.Quantity < 0 {
				report.Violations = append(report.Violations, Violation{
					Kind:     "negative_stock",
					EntityID: rec.ProductID.String(),
					Expected: ">= 0",
					Actual:   rec.Quantity.String(),
				})
			}
		}
		if len(records) < pageSize {
			return nil
		}
	}
}

// currentBalance == sum(debit - credit) over rows other than opening_balance
func (v *Verifier) checkLedger(ctx context.Context, report *Report) error {
	var errs error
	for offset := 0; ; offset += pageSize {
		suppliers, err := v.ledger.ListSuppliers(ctx, supplier_ledger.ListFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list suppliers: %w", err))
		}
		for i := range suppliers {
			s := &suppliers[i]
			report.SuppliersChecked++

			entries, err := v.ledger.ListEntries(ctx, s.ID)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("list entries of %s: %w", s.ID, err))
				continue
			}
			sum := types.Zero()
			for j := range entries {
				if entries[j].Type == supplier_ledger.EntryOpeningBalance {
					continue
				}
				sum = sum.Add(entries[j].Signed())
			}
			if !sum.Equal(s.CurrentBalance) {
				report.Violations = append(report.Violations, Violation{
					Kind:     "supplier_ledger",
					EntityID: s.ID.String(),
					Expected: sum.String(),
					Actual:   s.CurrentBalance.String(),
				})
			}
		}
		if len(suppliers) < pageSize {
			return errs
		}
	}
}
