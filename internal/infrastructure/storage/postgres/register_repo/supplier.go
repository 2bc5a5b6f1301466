package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const (
	suppliersTable = "reg_suppliers"
	ledgerTable    = "reg_supplier_ledger"
)

var (
	supplierColumns = postgres.Columns[supplier_ledger.Supplier]()
	entryColumns    = postgres.Columns[supplier_ledger.Entry]()
)

// SupplierRepo implements supplier_ledger.Repository.
type SupplierRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewSupplierRepo creates a new supplier and ledger repository.
func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SupplierRepo) CreateSupplier(ctx context.Context, s *supplier_ledger.Supplier) error {
	data := postgres.RowOf(s)
	sql, args, err := r.builder.Insert(suppliersTable).
		Columns(supplierColumns...).
		Values(data.Values(supplierColumns)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert supplier: %w", err), "supplier", "code", s.Code)
	}
	return nil
}

func (r *SupplierRepo) getSupplier(ctx context.Context, supplierID id.ID, lock bool) (*supplier_ledger.Supplier, error) {
	sql, args, err := selectByID(r.builder, suppliersTable, supplierColumns, supplierID, lock).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s supplier_ledger.Supplier
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("supplier", supplierID.String())
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &s, nil
}

func (r *SupplierRepo) GetSupplier(ctx context.Context, supplierID id.ID) (*supplier_ledger.Supplier, error) {
	return r.getSupplier(ctx, supplierID, false)
}

func (r *SupplierRepo) GetSupplierForUpdate(ctx context.Context, supplierID id.ID) (*supplier_ledger.Supplier, error) {
	return r.getSupplier(ctx, supplierID, true)
}

func (r *SupplierRepo) update(ctx context.Context, supplierID id.ID, set map[string]any, entityField, value string) error {
	set["updated_at"] = time.Now().UTC()
	sql, args, err := r.builder.Update(suppliersTable).
		SetMap(set).
		Where(squirrel.Eq{"id": supplierID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update supplier: %w", err), "supplier", entityField, value)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("supplier", supplierID.String())
	}
	return nil
}

func (r *SupplierRepo) UpdateBalances(ctx context.Context, s *supplier_ledger.Supplier) error {
	return r.update(ctx, s.ID, map[string]any{
		"current_balance": s.CurrentBalance,
		"total_purchases": s.TotalPurchases,
		"total_payments":  s.TotalPayments,
	}, "", "")
}

func (r *SupplierRepo) UpdateProfile(ctx context.Context, s *supplier_ledger.Supplier) error {
	return r.update(ctx, s.ID, map[string]any{
		"code":           s.Code,
		"name":           s.Name,
		"contact_person": s.ContactPerson,
		"phone":          s.Phone,
		"email":          s.Email,
		"address":        s.Address,
	}, "code", s.Code)
}

func (r *SupplierRepo) ListSuppliers(ctx context.Context, filter supplier_ledger.ListFilter) ([]supplier_ledger.Supplier, error) {
	q := r.builder.Select(supplierColumns...).From(suppliersTable).OrderBy("id")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"contact_person": pattern},
		})
	}
	if filter.WithBalanceOnly {
		q = q.Where("opening_balance + current_balance <> 0")
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var suppliers []supplier_ledger.Supplier
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &suppliers, sql, args...); err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return suppliers, nil
}

func (r *SupplierRepo) AppendEntry(ctx context.Context, e *supplier_ledger.Entry) error {
	data := postgres.RowOf(e)
	sql, args, err := r.builder.Insert(ledgerTable).
		Columns(entryColumns...).
		Values(data.Values(entryColumns)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("append ledger entry: %w", err), "supplier", "id", e.SupplierID.String())
	}
	return nil
}

func (r *SupplierRepo) DeleteEntriesByReference(ctx context.Context, supplierID, referenceID id.ID) (int64, error) {
	sql, args, err := deleteEntries(r.builder, supplierID, referenceID).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete ledger entries: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListEntries orders by seq: created_at ties inside one transaction.
func (r *SupplierRepo) ListEntries(ctx context.Context, supplierID id.ID) ([]supplier_ledger.Entry, error) {
	sql, args, err := selectEntries(r.builder, supplierID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []supplier_ledger.Entry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

// deleteEntries matches on supplier as well as reference, so a reused
// reference id can never remove another supplier's rows.
func deleteEntries(b squirrel.StatementBuilderType, supplierID, referenceID id.ID) squirrel.DeleteBuilder {
	return b.Delete(ledgerTable).
		Where(squirrel.Eq{"supplier_id": supplierID, "reference_id": referenceID})
}

func selectEntries(b squirrel.StatementBuilderType, supplierID id.ID) squirrel.SelectBuilder {
	return b.Select(entryColumns...).
		From(ledgerTable).
		Where(squirrel.Eq{"supplier_id": supplierID}).
		OrderBy("seq")
}

// selectByID reads one row of table; lock adds FOR UPDATE.
func selectByID(b squirrel.StatementBuilderType, table string, cols []string, rowID id.ID, lock bool) squirrel.SelectBuilder {
	q := b.Select(cols...).From(table).Where(squirrel.Eq{"id": rowID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

var _ supplier_ledger.Repository = (*SupplierRepo)(nil)
