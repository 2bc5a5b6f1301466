// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const (
	inventoryTable = "reg_inventory"
	productsTable  = "cat_products"
)

var inventoryColumns = postgres.Columns[stock.Record]()

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new inventory repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StockRepo) get(ctx context.Context, q squirrel.SelectBuilder) (*stock.Record, bool, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build query: %w", err)
	}

	var rec stock.Record
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get inventory: %w", err)
	}
	return &rec, true, nil
}

// Get returns the record of one product.
func (r *StockRepo) Get(ctx context.Context, productID id.ID) (*stock.Record, bool, error) {
	return r.get(ctx, selectStock(r.builder, productID, false))
}

// GetForUpdate locks the product's row until the transaction ends. A product
// without stock gets a zero row first: two first-time writers then queue on
// the same row lock instead of both inserting.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID id.ID) (*stock.Record, bool, error) {
	sql, args, err := ensureStockRow(r.builder, productID).ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, false, postgres.MapError(fmt.Errorf("create inventory row: %w", err), "product", "id", productID.String())
	}
	return r.get(ctx, selectStock(r.builder, productID, true))
}

// Upsert inserts the record or replaces quantity and batch fields. Callers
// hold the row lock from GetForUpdate, so EXCLUDED values are never stale.
func (r *StockRepo) Upsert(ctx context.Context, rec *stock.Record) error {
	sql, args, err := upsertStock(r.builder, rec).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("upsert inventory: %w", err), "product", "id", rec.ProductID.String())
	}
	return nil
}

func selectStock(b squirrel.StatementBuilderType, productID id.ID, lock bool) squirrel.SelectBuilder {
	q := b.Select(inventoryColumns...).
		From(inventoryTable).
		Where(squirrel.Eq{"product_id": productID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func ensureStockRow(b squirrel.StatementBuilderType, productID id.ID) squirrel.InsertBuilder {
	return b.Insert(inventoryTable).
		Columns("product_id").
		Values(productID).
		Suffix("ON CONFLICT (product_id) DO NOTHING")
}

func upsertStock(b squirrel.StatementBuilderType, rec *stock.Record) squirrel.InsertBuilder {
	return b.Insert(inventoryTable).
		Columns("product_id", "quantity", "batch_number", "expiry_date", "manufacture_date", "updated_at").
		Values(rec.ProductID, rec.Quantity, rec.BatchNumber, rec.ExpiryDate, rec.ManufactureDate, rec.UpdatedAt).
		Suffix(`ON CONFLICT (product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			batch_number = EXCLUDED.batch_number,
			expiry_date = EXCLUDED.expiry_date,
			manufacture_date = EXCLUDED.manufacture_date,
			updated_at = EXCLUDED.updated_at`)
}

// List returns inventory records ordered by product.
func (r *StockRepo) List(ctx context.Context, filter stock.ListFilter) ([]stock.Record, error) {
	q := r.builder.Select(inventoryColumns...).From(inventoryTable).OrderBy("product_id")

	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.Gt{"quantity": 0})
	}
	if filter.ExpiringBefore != nil {
		q = q.Where(squirrel.Lt{"expiry_date": *filter.ExpiringBefore})
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

	var records []stock.Record
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return records, nil
}

// Exists implements stock.ProductChecker.
func (r *StockRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	sql, args, err := r.builder.Select("1").From(productsTable).Where(squirrel.Eq{"id": productID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check product: %w", err)
	}
	return true, nil
}

var (
	_ stock.Repository     = (*StockRepo)(nil)
	_ stock.ProductChecker = (*StockRepo)(nil)
)
