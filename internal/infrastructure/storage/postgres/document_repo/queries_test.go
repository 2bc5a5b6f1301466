package document_repo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/documents/sale"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

func TestSelectHeader_SQL(t *testing.T) {
	repo := NewBaseDocumentRepo(nil, "doc_sales", "sale", func() *sale.Sale { return &sale.Sale{} })
	saleID := id.New()
	cols := strings.Join(repo.selectCols, ", ")

	sql, args, err := repo.selectHeader(saleID, false).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+cols+" FROM doc_sales WHERE id = $1", sql)
	assert.Equal(t, []any{saleID.String()}, args)

	sql, _, err = repo.selectHeader(saleID, true).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+cols+" FROM doc_sales WHERE id = $1 FOR UPDATE", sql)
}

func TestReturnedQuantities_SQL(t *testing.T) {
	repo := NewBaseDocumentRepo(nil, "doc_sales_returns", "sales_return", func() *sale.Sale { return &sale.Sale{} })
	saleID := id.New()

	sql, args, err := returnedQuantities(repo.Builder(), saleID).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT i.product_id, SUM(i.quantity)::bigint FROM doc_sales_return_items i "+
		"JOIN doc_sales_returns h ON h.id = i.return_id WHERE h.sale_id = $1 GROUP BY i.product_id", sql)
	assert.Equal(t, []any{saleID.String()}, args)
}

func TestInvoiceConflict(t *testing.T) {
	mapped := func(constraint string) error {
		cause := fmt.Errorf("insert doc_purchases: %w", &pgconn.PgError{Code: "23505", ConstraintName: constraint})
		return postgres.MapError(cause, "purchase", "number", "PU-2026-00001")
	}

	t.Run("invoice constraint", func(t *testing.T) {
		err := invoiceConflict(mapped(purchaseInvoiceConstraint), "INV-9")
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
		assert.Equal(t, "invoice_number", appErr.Details["field"])
		assert.Equal(t, "INV-9", appErr.Details["value"])
	})

	t.Run("number constraint", func(t *testing.T) {
		err := invoiceConflict(mapped("doc_purchases_number_key"), "INV-9")
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, "number", appErr.Details["field"])
	})

	t.Run("plain error", func(t *testing.T) {
		plain := fmt.Errorf("connection reset")
		assert.Same(t, plain, invoiceConflict(plain, "INV-9"))
	})
}
