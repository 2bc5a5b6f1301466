package supplier_ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/internal/infrastructure/storage/memory"
)

type fakeAuditor struct {
	creates []string
	updates []map[string]any
}

func (a *fakeAuditor) LogCreate(_ context.Context, entityType string, _ id.ID, _ string, _ map[string]any) {
	a.creates = append(a.creates, entityType)
}

func (a *fakeAuditor) LogUpdate(_ context.Context, _ string, _ id.ID, _ string, _, changes map[string]any) {
	a.updates = append(a.updates, changes)
}

func money(s string) types.Money { return types.MustMoney(s) }

type harness struct {
	ctx     context.Context
	engine  *supplier_ledger.Engine
	store   *memory.Store
	auditor *fakeAuditor
}

func newHarness() *harness {
	store := memory.New()
	auditor := &fakeAuditor{}
	return &harness{
		ctx:     context.Background(),
		engine:  supplier_ledger.NewEngine(store.Suppliers(), store, auditor),
		store:   store,
		auditor: auditor,
	}
}

func (h *harness) register(t *testing.T, opening string) *supplier_ledger.Supplier {
	t.Helper()
	s, err := h.engine.RegisterSupplier(h.ctx, supplier_ledger.RegisterInput{
		Name:           "Pharma Wholesale",
		OpeningBalance: money(opening),
	})
	require.NoError(t, err)
	return s
}

// inTx runs fn the way an orchestrator would.
func (h *harness) inTx(t *testing.T, fn func(ctx context.Context) error) {
	t.Helper()
	require.NoError(t, h.store.RunInTransaction(h.ctx, fn))
}

func (h *harness) assertLedgerMatches(t *testing.T, supplierID id.ID) {
	t.Helper()
	st, err := h.engine.Statement(h.ctx, supplierID)
	require.NoError(t, err)

	sum := types.Zero()
	all := types.Zero()
	for i := range st.Entries {
		all = all.Add(st.Entries[i].Signed())
		if st.Entries[i].Type != supplier_ledger.EntryOpeningBalance {
			sum = sum.Add(st.Entries[i].Signed())
		}
	}
	assert.True(t, sum.Equal(st.Supplier.CurrentBalance), "sum %s current %s", sum, st.Supplier.CurrentBalance)
	assert.True(t, all.Equal(st.Payable), "all %s payable %s", all, st.Payable)
}

func TestRegisterSupplier_OpeningBalanceRow(t *testing.T) {
	h := newHarness()
	s := h.register(t, "500")

	st, err := h.engine.Statement(h.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, supplier_ledger.EntryOpeningBalance, st.Entries[0].Type)
	assert.True(t, st.Entries[0].Debit.Equal(money("500")))
	assert.True(t, st.Entries[0].Balance.Equal(money("500")))
	assert.True(t, st.Supplier.CurrentBalance.IsZero())
	assert.True(t, st.Payable.Equal(money("500")))
	assert.Equal(t, []string{"supplier"}, h.auditor.creates)
}

func TestRegisterSupplier_NegativeOpeningIsCredit(t *testing.T) {
	h := newHarness()
	s := h.register(t, "-80")

	st, err := h.engine.Statement(h.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, st.Entries, 1)
	assert.True(t, st.Entries[0].Credit.Equal(money("80")))
	assert.True(t, st.Entries[0].Debit.IsZero())
	h.assertLedgerMatches(t, s.ID)
}

func TestRegisterSupplier_ZeroOpeningHasNoRow(t *testing.T) {
	h := newHarness()
	s := h.register(t, "0")

	st, err := h.engine.Statement(h.ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, st.Entries)
}

func TestRegisterSupplier_NameRequired(t *testing.T) {
	h := newHarness()

	_, err := h.engine.RegisterSupplier(h.ctx, supplier_ledger.RegisterInput{Name: "  "})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestRecordPurchase_WithUpfrontPayment(t *testing.T) {
	h := newHarness()
	s := h.register(t, "100")
	purchaseID := id.New()

	h.inTx(t, func(ctx context.Context) error {
		return h.engine.RecordPurchase(ctx, supplier_ledger.PurchaseEntry{
			SupplierID:    s.ID,
			PurchaseID:    purchaseID,
			InvoiceNumber: "INV-7",
			TotalAmount:   money("300"),
			PaidAmount:    money("120"),
		})
	})

	st, err := h.engine.Statement(h.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, st.Entries, 3)

	purchaseRow, paymentRow := st.Entries[1], st.Entries[2]
	assert.Equal(t, supplier_ledger.EntryPurchase, purchaseRow.Type)
	assert.True(t, purchaseRow.Balance.Equal(money("400")))
	assert.Equal(t, supplier_ledger.EntryPayment, paymentRow.Type)
	assert.True(t, paymentRow.Balance.Equal(money("280")))
	require.NotNil(t, paymentRow.ReferenceID)
	assert.Equal(t, purchaseID, *paymentRow.ReferenceID)

	assert.True(t, st.Supplier.CurrentBalance.Equal(money("180")))
	assert.True(t, st.Supplier.TotalPurchases.Equal(money("300")))
	assert.True(t, st.Supplier.TotalPayments.Equal(money("120")))
	h.assertLedgerMatches(t, s.ID)
}

func TestRecordPurchase_UnpaidHasSingleRow(t *testing.T) {
	h := newHarness()
	s := h.register(t, "0")

	h.inTx(t, func(ctx context.Context) error {
		return h.engine.RecordPurchase(ctx, supplier_ledger.PurchaseEntry{
			SupplierID:  s.ID,
			PurchaseID:  id.New(),
			TotalAmount: money("75"),
			PaidAmount:  types.Zero(),
		})
	})

	st, err := h.engine.Statement(h.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, st.Entries, 1)
	assert.True(t, st.Supplier.TotalPayments.IsZero())
}

func TestRecordPayment(t *testing.T) {
	h := newHarness()
	s := h.register(t, "200")

	var entry *supplier_ledger.Entry
	h.inTx(t, func(ctx context.Context) error {
		var err error
		entry, err = h.engine.RecordPayment(ctx, s.ID, id.New(), money("50"), "")
		return err
	})

	assert.Equal(t, "Payment", entry.Description)
	assert.True(t, entry.Credit.Equal(money("50")))
	assert.True(t, entry.Balance.Equal(money("150")))

	got, err := h.engine.GetSupplier(h.ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(money("-50")))
	assert.True(t, got.Payable().Equal(money("150")))
	h.assertLedgerMatches(t, s.ID)
}

func TestRecordPayment_RejectsNonPositive(t *testing.T) {
	h := newHarness()
	s := h.register(t, "0")

	_, err := h.engine.RecordPayment(h.ctx, s.ID, id.New(), types.Zero(), "")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestReversePurchase_RestoresPriorState(t *testing.T) {
	h := newHarness()
	s := h.register(t, "100")
	entry := supplier_ledger.PurchaseEntry{
		SupplierID:  s.ID,
		PurchaseID:  id.New(),
		TotalAmount: money("300"),
		PaidAmount:  money("120"),
	}

	h.inTx(t, func(ctx context.Context) error { return h.engine.RecordPurchase(ctx, entry) })
	h.inTx(t, func(ctx context.Context) error { return h.engine.ReversePurchase(ctx, entry) })

	st, err := h.engine.Statement(h.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, supplier_ledger.EntryOpeningBalance, st.Entries[0].Type)
	assert.True(t, st.Supplier.CurrentBalance.IsZero())
	assert.True(t, st.Supplier.TotalPurchases.IsZero())
	assert.True(t, st.Supplier.TotalPayments.IsZero())
	h.assertLedgerMatches(t, s.ID)
}

func TestReversePurchase_KeepsCreditBalance(t *testing.T) {
	h := newHarness()
	s := h.register(t, "0")
	entry := supplier_ledger.PurchaseEntry{
		SupplierID:  s.ID,
		PurchaseID:  id.New(),
		TotalAmount: money("100"),
	}

	h.inTx(t, func(ctx context.Context) error {
		_, err := h.engine.RecordPayment(ctx, s.ID, id.New(), money("200"), "advance")
		return err
	})
	h.inTx(t, func(ctx context.Context) error { return h.engine.RecordPurchase(ctx, entry) })
	h.inTx(t, func(ctx context.Context) error { return h.engine.ReversePurchase(ctx, entry) })

	st, err := h.engine.Statement(h.ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, st.Supplier.CurrentBalance.Equal(money("-200")), "current %s", st.Supplier.CurrentBalance)
	assert.True(t, st.Supplier.TotalPurchases.IsZero())
	assert.True(t, st.Supplier.TotalPayments.Equal(money("200")))
	h.assertLedgerMatches(t, s.ID)
}

func TestUpdateSupplier(t *testing.T) {
	h := newHarness()
	s := h.register(t, "40")
	phone := " +44 20 7946 0000 "

	got, err := h.engine.UpdateSupplier(h.ctx, s.ID, supplier_ledger.UpdateInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "+44 20 7946 0000", got.Phone)
	assert.True(t, got.OpeningBalance.Equal(money("40")))

	require.Len(t, h.auditor.updates, 1)
	assert.Equal(t, map[string]any{"phone": "+44 20 7946 0000"}, h.auditor.updates[0])
}

func TestUpdateSupplier_DuplicateCode(t *testing.T) {
	h := newHarness()
	_, err := h.engine.RegisterSupplier(h.ctx, supplier_ledger.RegisterInput{Code: "S-1", Name: "First"})
	require.NoError(t, err)
	second := h.register(t, "0")

	code := "S-1"
	_, err = h.engine.UpdateSupplier(h.ctx, second.ID, supplier_ledger.UpdateInput{Code: &code})
	require.Error(t, err)
	assert.True(t, apperror.IsDuplicate(err))
}

func TestUpdateSupplier_NotFound(t *testing.T) {
	h := newHarness()
	name := "Ghost"

	_, err := h.engine.UpdateSupplier(h.ctx, id.New(), supplier_ledger.UpdateInput{Name: &name})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
