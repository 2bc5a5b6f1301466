package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const accountsTable = "reg_bank_accounts"

var accountColumns = postgres.Columns[account.BankAccount]()

// AccountRepo implements account.Repository.
type AccountRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewAccountRepo creates a new bank account repository.
func NewAccountRepo(txManager *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *AccountRepo) Create(ctx context.Context, acc *account.BankAccount) error {
	data := postgres.RowOf(acc)
	sql, args, err := r.builder.Insert(accountsTable).
		Columns(accountColumns...).
		Values(data.Values(accountColumns)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert account: %w", err), "account", "id", acc.ID.String())
	}
	return nil
}

func (r *AccountRepo) get(ctx context.Context, accountID id.ID, lock bool) (*account.BankAccount, error) {
	sql, args, err := selectByID(r.builder, accountsTable, accountColumns, accountID, lock).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var acc account.BankAccount
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &acc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("account", accountID.String())
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acc, nil
}

func (r *AccountRepo) Get(ctx context.Context, accountID id.ID) (*account.BankAccount, error) {
	return r.get(ctx, accountID, false)
}

func (r *AccountRepo) GetForUpdate(ctx context.Context, accountID id.ID) (*account.BankAccount, error) {
	return r.get(ctx, accountID, true)
}

func (r *AccountRepo) UpdateBalances(ctx context.Context, acc *account.BankAccount) error {
	sql, args, err := r.builder.Update(accountsTable).
		Set("current_balance", acc.CurrentBalance).
		Set("total_deposits", acc.TotalDeposits).
		Set("total_withdrawals", acc.TotalWithdrawals).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": acc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update account balances: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("account", acc.ID.String())
	}
	return nil
}

func (r *AccountRepo) List(ctx context.Context) ([]account.BankAccount, error) {
	sql, args, err := r.builder.Select(accountColumns...).From(accountsTable).OrderBy("name", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var accounts []account.BankAccount
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &accounts, sql, args...); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

var _ account.Repository = (*AccountRepo)(nil)
