package stock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/infrastructure/storage/memory"
)

type updateCall struct {
	entityType string
	old        map[string]any
	changes    map[string]any
}

type recordingAuditor struct {
	updates []updateCall
}

func (a *recordingAuditor) LogUpdate(_ context.Context, entityType string, _ id.ID, _ string, old, changes map[string]any) {
	a.updates = append(a.updates, updateCall{entityType: entityType, old: old, changes: changes})
}

func newService(t *testing.T) (*stock.Service, *memory.Store, *recordingAuditor) {
	t.Helper()
	store := memory.New()
	auditor := &recordingAuditor{}
	return stock.NewService(store.Stock(), store.Stock(), store, auditor), store, auditor
}

func newProduct(t *testing.T, store *memory.Store) id.ID {
	t.Helper()
	p := product.NewProduct("", "Amoxicillin 250mg")
	require.NoError(t, store.Products().Create(context.Background(), p))
	return p.ID
}

func TestConvertToBaseUnits(t *testing.T) {
	tests := []struct {
		name            string
		quantity        types.Quantity
		unitsPerPackage int64
		want            types.Quantity
	}{
		{"packages of ten", types.NewQuantity(3), 10, types.NewQuantity(30)},
		{"single unit", types.NewQuantity(3), 1, types.NewQuantity(3)},
		{"zero treated as single", types.NewQuantity(3), 0, types.NewQuantity(3)},
		{"negative treated as single", types.NewQuantity(3), -4, types.NewQuantity(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stock.ConvertToBaseUnits(tt.quantity, tt.unitsPerPackage))
		})
	}
}

func TestApplyDelta_CreatesRecordLazily(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	productID := id.New()

	got, err := svc.ApplyDelta(ctx, productID, types.NewQuantity(7), nil)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(7), got)

	rec, found, err := store.Stock().Get(ctx, productID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.NewQuantity(7), rec.Quantity)
}

func TestApplyDelta_NegativeOnMissingRecordStartsAtZero(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	productID := id.New()

	got, err := svc.ApplyDelta(ctx, productID, types.NewQuantity(-4), nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	rec, found, err := store.Stock().Get(ctx, productID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, rec.Quantity.IsZero())
}

func TestApplyDelta_ClampsAtZero(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	productID := id.New()

	_, err := svc.ApplyDelta(ctx, productID, types.NewQuantity(5), nil)
	require.NoError(t, err)

	got, err := svc.ApplyDelta(ctx, productID, types.NewQuantity(-8), nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = svc.ApplyDelta(ctx, productID, types.NewQuantity(2), nil)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(2), got)
}

func TestApplyDelta_BatchOverwrittenByLatestIncrement(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	productID := id.New()
	first := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	second := time.Date(2028, 6, 30, 0, 0, 0, 0, time.UTC)

	_, err := svc.ApplyDelta(ctx, productID, types.NewQuantity(10), &stock.Batch{BatchNumber: "B-1", ExpiryDate: &first})
	require.NoError(t, err)
	_, err = svc.ApplyDelta(ctx, productID, types.NewQuantity(10), &stock.Batch{BatchNumber: "B-2", ExpiryDate: &second})
	require.NoError(t, err)
	// Decrements carry no batch and leave the metadata alone.
	_, err = svc.ApplyDelta(ctx, productID, types.NewQuantity(-3), nil)
	require.NoError(t, err)

	rec, err := svc.Get(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(17), rec.Quantity)
	assert.Equal(t, "B-2", rec.BatchNumber)
	require.NotNil(t, rec.ExpiryDate)
	assert.True(t, rec.ExpiryDate.Equal(second))
}

func TestUpdateQuantity(t *testing.T) {
	svc, store, auditor := newService(t)
	ctx := context.Background()
	productID := newProduct(t, store)

	rec, err := svc.UpdateQuantity(ctx, productID, types.NewQuantity(12))
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(12), rec.Quantity)

	rec, err = svc.UpdateQuantity(ctx, productID, types.NewQuantity(-20))
	require.NoError(t, err)
	assert.True(t, rec.Quantity.IsZero())

	require.Len(t, auditor.updates, 2)
	assert.Equal(t, "inventory", auditor.updates[1].entityType)
	assert.Equal(t, types.NewQuantity(12), auditor.updates[1].old["quantity"])
	assert.Equal(t, types.Quantity(0), auditor.updates[1].changes["quantity"])
}

func TestUpdateQuantity_UnknownProduct(t *testing.T) {
	svc, _, auditor := newService(t)

	_, err := svc.UpdateQuantity(context.Background(), id.New(), types.NewQuantity(1))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, auditor.updates)
}

func TestUpdateQuantity_NilProduct(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.UpdateQuantity(context.Background(), id.ID{}, types.NewQuantity(1))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestGet_NeverStockedReportsZero(t *testing.T) {
	svc, _, _ := newService(t)
	productID := id.New()

	rec, err := svc.Get(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, productID, rec.ProductID)
	assert.True(t, rec.Quantity.IsZero())
}

func TestList_ExcludeZero(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	stocked, empty := id.New(), id.New()

	_, err := svc.ApplyDelta(ctx, stocked, types.NewQuantity(3), nil)
	require.NoError(t, err)
	_, err = svc.ApplyDelta(ctx, empty, types.NewQuantity(-1), nil)
	require.NoError(t, err)

	all, err := svc.List(ctx, stock.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	nonZero, err := svc.List(ctx, stock.ListFilter{ExcludeZero: true})
	require.NoError(t, err)
	require.Len(t, nonZero, 1)
	assert.Equal(t, stocked, nonZero[0].ProductID)
}
