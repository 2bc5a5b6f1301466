// Package account is the cash/bank account balance tracker.
package account

import (
	"context"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/types"
)

// Kind distinguishes a cash drawer from a bank account.
type Kind string

const (
	KindCash Kind = "cash"
	KindBank Kind = "bank"
)

// BankAccount holds a running balance and its cumulative counters.
// Invariant: CurrentBalance == OpeningBalance + TotalDeposits - TotalWithdrawals.
type BankAccount struct {
	entity.Catalog

	Kind          Kind   `db:"kind" json:"kind"`
	BankName      string `db:"bank_name" json:"bankName,omitempty"`
	AccountNumber string `db:"account_number" json:"accountNumber,omitempty"`

	OpeningBalance   types.Money `db:"opening_balance" json:"openingBalance"`
	CurrentBalance   types.Money `db:"current_balance" json:"currentBalance"`
	TotalDeposits    types.Money `db:"total_deposits" json:"totalDeposits"`
	TotalWithdrawals types.Money `db:"total_withdrawals" json:"totalWithdrawals"`
}

// NewBankAccount creates an account whose current balance starts at the opening balance.
func NewBankAccount(name string, kind Kind, opening types.Money) *BankAccount {
	return &BankAccount{
		Catalog:          entity.NewCatalog("", name),
		Kind:             kind,
		OpeningBalance:   opening,
		CurrentBalance:   opening,
		TotalDeposits:    types.Zero(),
		TotalWithdrawals: types.Zero(),
	}
}

// Validate implements entity.Validatable.
func (a *BankAccount) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch a.Kind {
	case KindCash, KindBank:
	default:
		return apperror.NewValidation("account kind must be cash or bank").WithDetail("field", "kind")
	}
	return entity.ValidateMoney("openingBalance", a.OpeningBalance)
}

// Balanced reports whether the balance invariant holds.
func (a *BankAccount) Balanced() bool {
	expected := a.OpeningBalance.Add(a.TotalDeposits).Sub(a.TotalWithdrawals)
	return expected.Equal(a.CurrentBalance)
}
