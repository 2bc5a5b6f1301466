package account

import (
	"context"

	"pharmaledger/internal/core/id"
)

// Repository defines persistence for bank accounts.
type Repository interface {
	Create(ctx context.Context, acc *BankAccount) error

	// Get returns apperror NotFound when the account does not exist.
	Get(ctx context.Context, id id.ID) (*BankAccount, error)

	// GetForUpdate is Get with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, id id.ID) (*BankAccount, error)

	// UpdateBalances writes the current balance and both counters.
	UpdateBalances(ctx context.Context, acc *BankAccount) error

	List(ctx context.Context) ([]BankAccount, error)
}
