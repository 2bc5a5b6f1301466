package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/domain/registers/supplier_ledger"
)

type fakeAccounts struct {
	items []account.BankAccount
	err   error
}

func (f fakeAccounts) List(context.Context) ([]account.BankAccount, error) { return f.items, f.err }

type fakeStock struct {
	items []stock.Record
}

func (f fakeStock) List(_ context.Context, filter stock.ListFilter) ([]stock.Record, error) {
	if filter.Offset >= len(f.items) {
		return nil, nil
	}
	end := min(filter.Offset+filter.Limit, len(f.items))
	return f.items[filter.Offset:end], nil
}

type fakeLedger struct {
	suppliers []supplier_ledger.Supplier
	entries   map[id.ID][]supplier_ledger.Entry
}

func (f fakeLedger) ListSuppliers(_ context.Context, filter supplier_ledger.ListFilter) ([]supplier_ledger.Supplier, error) {
	if filter.Offset >= len(f.suppliers) {
		return nil, nil
	}
	end := min(filter.Offset+filter.Limit, len(f.suppliers))
	return f.suppliers[filter.Offset:end], nil
}

func (f fakeLedger) ListEntries(_ context.Context, supplierID id.ID) ([]supplier_ledger.Entry, error) {
	return f.entries[supplierID], nil
}

func money(s string) types.Money { return types.MustMoney(s) }

func bankAccount(opening, deposits, withdrawals, current string) account.BankAccount {
	acc := account.NewBankAccount("Till", account.KindCash, money(opening))
	acc.TotalDeposits = money(deposits)
	acc.TotalWithdrawals = money(withdrawals)
	acc.CurrentBalance = money(current)
	return *acc
}

func entityWithID(supplierID id.ID) entity.Catalog {
	c := entity.NewCatalog("", "Wholesaler")
	c.ID = supplierID
	return c
}

func entry(supplierID id.ID, typ supplier_ledger.EntryType, debit, credit string) supplier_ledger.Entry {
	return supplier_ledger.Entry{
		ID:         id.New(),
		SupplierID: supplierID,
		Type:       typ,
		Debit:      money(debit),
		Credit:     money(credit),
	}
}

func TestRun_Clean(t *testing.T) {
	supplierID := id.New()
	v := NewVerifier(
		fakeAccounts{items: []account.BankAccount{bankAccount("100", "50", "30", "120")}},
		fakeStock{items: []stock.Record{{ProductID: id.New(), Quantity: types.NewQuantity(4)}}},
		fakeLedger{
			suppliers: []supplier_ledger.Supplier{{
				Catalog:        entityWithID(supplierID),
				OpeningBalance: money("500"),
				CurrentBalance: money("200"),
			}},
			entries: map[id.ID][]supplier_ledger.Entry{supplierID: {
				entry(supplierID, supplier_ledger.EntryOpeningBalance, "500", "0"),
				entry(supplierID, supplier_ledger.EntryPurchase, "300", "0"),
				entry(supplierID, supplier_ledger.EntryPayment, "0", "100"),
			}},
		},
	)

	report, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
	assert.Equal(t, 1, report.AccountsChecked)
	assert.Equal(t, 1, report.RecordsChecked)
	assert.Equal(t, 1, report.SuppliersChecked)
}

func TestRun_ReportsEveryViolation(t *testing.T) {
	supplierID := id.New()
	v := NewVerifier(
		fakeAccounts{items: []account.BankAccount{bankAccount("100", "50", "30", "999")}},
		fakeStock{items: []stock.Record{{ProductID: id.New(), Quantity: types.NewQuantity(-2)}}},
		fakeLedger{
			suppliers: []supplier_ledger.Supplier{{
				Catalog:        entityWithID(supplierID),
				CurrentBalance: money("10"),
			}},
			entries: map[id.ID][]supplier_ledger.Entry{supplierID: {
				entry(supplierID, supplier_ledger.EntryPurchase, "25", "0"),
			}},
		},
	)

	report, err := v.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Violations, 3)

	kinds := []string{report.Violations[0].Kind, report.Violations[1].Kind, report.Violations[2].Kind}
	assert.Equal(t, []string{"account_balance", "negative_stock", "supplier_ledger"}, kinds)
	assert.Equal(t, "120", report.Violations[0].Expected)
	assert.Equal(t, "25", report.Violations[2].Expected)
	assert.Len(t, multierr.Errors(report.Err()), 3)
}

func TestRun_PagesThroughStock(t *testing.T) {
	records := make([]stock.Record, pageSize+5)
	for i := range records {
		records[i] = stock.Record{ProductID: id.New(), Quantity: types.NewQuantity(1)}
	}
	v := NewVerifier(fakeAccounts{}, fakeStock{items: records}, fakeLedger{})

	report, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pageSize+5, report.RecordsChecked)
}

func TestRun_ReadFailureIsReturned(t *testing.T) {
	boom := errors.New("connection reset")
	v := NewVerifier(fakeAccounts{err: boom}, fakeStock{}, fakeLedger{})

	report, err := v.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.True(t, report.OK())
}

type countingManager struct{ calls int }

func (m *countingManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

func TestRun_ReadsInsideSnapshot(t *testing.T) {
	snapshot := &countingManager{}
	v := NewVerifier(fakeAccounts{}, fakeStock{}, fakeLedger{}).WithSnapshot(snapshot)

	report, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, snapshot.calls)
}
