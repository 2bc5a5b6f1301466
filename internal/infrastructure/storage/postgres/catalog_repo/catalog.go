// Package catalog_repo stores products, customers and employees.
package catalog_repo

import (
	"context"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// immutable columns are written once on insert.
var immutable = []string{"id", "created_at"}

// catalog is the generic table gateway behind every catalog repository.
// Columns come from the entity's "db" tags.
type catalog[T domain.CatalogEntity] struct {
	txm    *postgres.TxManager
	table  string
	entity string
	cols   []string
	alloc  func() T

	// managed columns are owned by a dedicated writer and left out of Update.
	managed []string
}

func newCatalog[T domain.CatalogEntity](txm *postgres.TxManager, table, entity string, cols []string, alloc func() T) *catalog[T] {
	return &catalog[T]{txm: txm, table: table, entity: entity, cols: cols, alloc: alloc}
}

func (r *catalog[T]) db(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *catalog[T]) exec(ctx context.Context, q squirrel.Sqlizer, code string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s statement: %w", r.table, err)
	}
	tag, err := r.db(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(fmt.Errorf("write %s: %w", r.table, err), r.entity, "code", code)
	}
	return tag.RowsAffected(), nil
}

func codeOf(row postgres.Row) string {
	code, _ := row["code"].(string)
	return code
}

// Create inserts every tagged column of e.
func (r *catalog[T]) Create(ctx context.Context, e T) error {
	row := postgres.RowOf(e)
	_, err := r.exec(ctx, psql.Insert(r.table).Columns(r.cols...).Values(row.Values(r.cols)...), codeOf(row))
	return err
}

// Update rewrites the editable columns of e.
func (r *catalog[T]) Update(ctx context.Context, e T) error {
	row := postgres.RowOf(e)
	q := psql.Update(r.table).Where(squirrel.Eq{"id": e.GetID()})
	for _, col := range r.cols {
		if slices.Contains(immutable, col) || slices.Contains(r.managed, col) {
			continue
		}
		q = q.Set(col, row[col])
	}
	n, err := r.exec(ctx, q, codeOf(row))
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound(r.entity, e.GetID().String())
	}
	return nil
}

func (r *catalog[T]) selectAll() squirrel.SelectBuilder {
	return psql.Select(r.cols...).From(r.table)
}

func (r *catalog[T]) one(ctx context.Context, q squirrel.SelectBuilder, entityID id.ID) (T, error) {
	e := r.alloc()
	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build %s query: %w", r.table, err)
	}
	if err := pgxscan.Get(ctx, r.db(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound(r.entity, entityID.String())
		}
		return e, fmt.Errorf("get %s: %w", r.entity, err)
	}
	return e, nil
}

func (r *catalog[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.one(ctx, r.selectAll().Where(squirrel.Eq{"id": entityID}), entityID)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *catalog[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.one(ctx, r.selectAll().Where(squirrel.Eq{"id": entityID}).Suffix("FOR UPDATE"), entityID)
}

// List orders by name and matches Search against name and code.
func (r *catalog[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	page := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset, Items: []T{}}

	var where squirrel.Sqlizer = squirrel.Expr("TRUE")
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = squirrel.Or{squirrel.ILike{"name": pattern}, squirrel.ILike{"code": pattern}}
	}

	sql, args, err := psql.Select("count(*)").From(r.table).Where(where).ToSql()
	if err != nil {
		return page, fmt.Errorf("build %s count: %w", r.table, err)
	}
	if err := r.db(ctx).QueryRow(ctx, sql, args...).Scan(&page.TotalCount); err != nil {
		return page, fmt.Errorf("count %s: %w", r.table, err)
	}
	if page.TotalCount == 0 {
		return page, nil
	}

	q := r.selectAll().Where(where).OrderBy("name", "id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	if sql, args, err = q.ToSql(); err != nil {
		return page, fmt.Errorf("build %s list: %w", r.table, err)
	}
	if err := pgxscan.Select(ctx, r.db(ctx), &page.Items, sql, args...); err != nil {
		return page, fmt.Errorf("list %s: %w", r.table, err)
	}
	return page, nil
}

func (r *catalog[T]) exists(ctx context.Context, where squirrel.Sqlizer) (bool, error) {
	sub := psql.Select("1").From(r.table).Where(where)
	sql, args, err := psql.Select().Column(squirrel.Expr("EXISTS (?)", sub)).ToSql()
	if err != nil {
		return false, fmt.Errorf("build %s exists: %w", r.table, err)
	}
	var found bool
	if err := r.db(ctx).QueryRow(ctx, sql, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("check %s: %w", r.table, err)
	}
	return found, nil
}

func (r *catalog[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"id": entityID})
}

func (r *catalog[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"code": code})
}
