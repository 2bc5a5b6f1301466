package account

import (
	"context"
	"fmt"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/core/types"
	"pharmaledger/pkg/logger"
)

// Auditor records account creation.
type Auditor interface {
	LogCreate(ctx context.Context, entityType string, entityID id.ID, entityName string, payload map[string]any)
}

// Tracker applies credits and debits to accounts.
// Credit, Debit and the reversals run inside the caller's transaction and
// never check funds; payment flows call RequireFunds first.
type Tracker struct {
	repo    Repository
	txm     tx.Manager
	auditor Auditor
}

// NewTracker creates a new account tracker.
func NewTracker(repo Repository, txm tx.Manager, auditor Auditor) *Tracker {
	return &Tracker{repo: repo, txm: txm, auditor: auditor}
}

// OpenInput describes a new account.
type OpenInput struct {
	Name           string
	Kind           Kind
	BankName       string
	AccountNumber  string
	OpeningBalance types.Money
}

// Open creates an account with currentBalance = openingBalance.
func (t *Tracker) Open(ctx context.Context, in OpenInput) (*BankAccount, error) {
	if in.Kind == "" {
		in.Kind = KindBank
	}
	acc := NewBankAccount(in.Name, in.Kind, in.OpeningBalance)
	acc.BankName = in.BankName
	acc.AccountNumber = in.AccountNumber
	acc.Code = in.AccountNumber

	if err := acc.Validate(ctx); err != nil {
		return nil, err
	}

	err := t.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return t.repo.Create(ctx, acc)
	})
	if err != nil {
		return nil, fmt.Errorf("open account: %w", err)
	}

	if t.auditor != nil {
		t.auditor.LogCreate(ctx, "bank_account", acc.ID, acc.Name, map[string]any{
			"kind":           acc.Kind,
			"openingBalance": acc.OpeningBalance,
		})
	}
	logger.Info(ctx, "account opened", "account_id", acc.ID, "opening_balance", acc.OpeningBalance)

	return acc, nil
}

// Get returns the account.
func (t *Tracker) Get(ctx context.Context, accountID id.ID) (*BankAccount, error) {
	return t.repo.Get(ctx, accountID)
}

// List returns all accounts.
func (t *Tracker) List(ctx context.Context) ([]BankAccount, error) {
	return t.repo.List(ctx)
}

// RequireFunds locks the account and fails with InsufficientFunds when
// currentBalance < amount. Nothing is written.
func (t *Tracker) RequireFunds(ctx context.Context, accountID id.ID, amount types.Money) error {
	acc, err := t.repo.GetForUpdate(ctx, accountID)
	if err != nil {
		return err
	}
	if acc.CurrentBalance.LessThan(amount) {
		return apperror.NewInsufficientFunds(accountID.String(), amount.String(), acc.CurrentBalance.String())
	}
	return nil
}

// Credit: currentBalance += amount; totalDeposits += amount.
func (t *Tracker) Credit(ctx context.Context, accountID id.ID, amount types.Money) (*BankAccount, error) {
	return t.apply(ctx, accountID, amount, func(acc *BankAccount) {
		acc.CurrentBalance = acc.CurrentBalance.Add(amount)
		acc.TotalDeposits = acc.TotalDeposits.Add(amount)
	})
}

// Debit: currentBalance -= amount; totalWithdrawals += amount.
// The balance may go negative.
func (t *Tracker) Debit(ctx context.Context, accountID id.ID, amount types.Money) (*BankAccount, error) {
	return t.apply(ctx, accountID, amount, func(acc *BankAccount) {
		acc.CurrentBalance = acc.CurrentBalance.Sub(amount)
		acc.TotalWithdrawals = acc.TotalWithdrawals.Add(amount)
	})
}

// ReverseDebit undoes a prior Debit; totalWithdrawals is floored at zero.
func (t *Tracker) ReverseDebit(ctx context.Context, accountID id.ID, amount types.Money) (*BankAccount, error) {
	return t.apply(ctx, accountID, amount, func(acc *BankAccount) {
		acc.CurrentBalance = acc.CurrentBalance.Add(amount)
		acc.TotalWithdrawals = types.FloorZero(acc.TotalWithdrawals.Sub(amount))
	})
}

// ReverseCredit undoes a prior Credit; totalDeposits is floored at zero.
func (t *Tracker) ReverseCredit(ctx context.Context, accountID id.ID, amount types.Money) (*BankAccount, error) {
	return t.apply(ctx, accountID, amount, func(acc *BankAccount) {
		acc.CurrentBalance = acc.CurrentBalance.Sub(amount)
		acc.TotalDeposits = types.FloorZero(acc.TotalDeposits.Sub(amount))
	})
}

func (t *Tracker) apply(ctx context.Context, accountID id.ID, amount types.Money, mutate func(*BankAccount)) (*BankAccount, error) {
	if amount.IsNegative() {
		return nil, apperror.NewValidation("amount cannot be negative").WithDetail("amount", amount.String())
	}

	acc, err := t.repo.GetForUpdate(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return acc, nil
	}

	mutate(acc)
	if err := t.repo.UpdateBalances(ctx, acc); err != nil {
		return nil, fmt.Errorf("update account %s: %w", accountID, err)
	}
	return acc, nil
}
