package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"pharmaledger/internal/core/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MapError converts constraint violations into application errors and
// leaves every other error untouched. field and value describe the
// offending key for duplicate errors.
func MapError(err error, entity, field, value string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewDuplicate(entity, field, value).WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewConflict("referenced record does not exist or is still in use").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		return apperror.NewValidation("value violates a storage constraint").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}
