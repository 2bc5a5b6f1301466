// Package document_repo provides PostgreSQL implementations for document repositories.
// A document is a header row plus, for multi-line documents, item rows
// written with COPY in the same transaction.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides header operations shared by every document table.
type BaseDocumentRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any](
	txManager *postgres.TxManager,
	tableName string,
	entityName string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.Columns[T](),
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// CreateHeader inserts the header row. A unique violation maps to Duplicate
// on field/value.
func (r *BaseDocumentRepo[T]) CreateHeader(ctx context.Context, entity T, field, value string) error {
	data := postgres.RowOf(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s", r.entityName)
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		Columns(r.selectCols...).
		Values(data.Values(r.selectCols)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", r.tableName, err), r.entityName, field, value)
	}
	return nil
}

// Delete hard-deletes the header; item rows go by cascade.
func (r *BaseDocumentRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().Delete(r.tableName).Where(squirrel.Eq{"id": entityID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete %s: %w", r.tableName, err), r.entityName, "id", entityID.String())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

func (r *BaseDocumentRepo[T]) get(ctx context.Context, entityID id.ID, lock bool) (T, error) {
	entity := r.newFn()
	sql, args, err := r.selectHeader(entityID, lock).ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return entity, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return entity, nil
}

func (r *BaseDocumentRepo[T]) selectHeader(entityID id.ID, lock bool) squirrel.SelectBuilder {
	q := r.Builder().Select(r.selectCols...).From(r.tableName).Where(squirrel.Eq{"id": entityID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

// GetHeader retrieves the header row by ID.
func (r *BaseDocumentRepo[T]) GetHeader(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, entityID, false)
}

// GetHeaderForUpdate retrieves the header row with a row lock.
func (r *BaseDocumentRepo[T]) GetHeaderForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, entityID, true)
}

// List retrieves headers in the date range, newest first.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().Select(r.selectCols...).From(r.tableName)
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("date DESC", "number DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.entityName, err)
	}
	return result, nil
}

// itemTable describes the line table of a multi-line document.
type itemTable[L any] struct {
	txManager *postgres.TxManager
	name      string
	parentCol string
	columns   []string
}

func newItemTable[L any](txManager *postgres.TxManager, name, parentCol string) itemTable[L] {
	return itemTable[L]{
		txManager: txManager,
		name:      name,
		parentCol: parentCol,
		columns:   postgres.Columns[L](),
	}
}

// insert copies lines into the table inside the caller's transaction.
func (t itemTable[L]) insert(ctx context.Context, lines []L) error {
	rows := make([][]any, len(lines))
	for i := range lines {
		rows[i] = postgres.RowOf(&lines[i]).Values(t.columns)
	}
	if _, err := t.txManager.CopyFrom(ctx, t.name, t.columns, rows); err != nil {
		return postgres.MapError(err, "product", "", "")
	}
	return nil
}

// load returns the lines of one document in line order.
func (t itemTable[L]) load(ctx context.Context, parentID id.ID) ([]L, error) {
	sql, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(t.columns...).
		From(t.name).
		Where(squirrel.Eq{t.parentCol: parentID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []L
	if err := pgxscan.Select(ctx, t.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("load %s: %w", t.name, err)
	}
	return lines, nil
}
