// Package memory is an in-process implementation of every repository and
// of tx.Manager. Transactions are serialized and roll back by restoring a
// snapshot of the business tables. The audit log and document sequences sit
// outside the snapshot, as they do outside business transactions in Postgres.
//
// Reads made outside a transaction may observe uncommitted writes of a
// concurrently running one.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/catalogs/employee"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/documents/damaged_item"
	"pharmaledger/internal/domain/documents/purchase"
	"pharmaledger/internal/domain/documents/purchase_return"
	"pharmaledger/internal/domain/documents/sale"
	"pharmaledger/internal/domain/documents/salary_payment"
	"pharmaledger/internal/domain/documents/sales_return"
	"pharmaledger/internal/domain/documents/supplier_payment"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/pkg/logger"
)

// state holds the transactional tables. Values are stored by value; item
// slices are copied on the way in and out, so a shallow map copy is a
// complete snapshot.
type state struct {
	products  map[id.ID]product.Product
	customers map[id.ID]customer.Customer
	employees map[id.ID]employee.Employee

	stock     map[id.ID]stock.Record
	accounts  map[id.ID]account.BankAccount
	suppliers map[id.ID]supplier_ledger.Supplier
	entries   []supplier_ledger.Entry

	sales            map[id.ID]sale.Sale
	salesReturns     map[id.ID]sales_return.SalesReturn
	purchases        map[id.ID]purchase.Purchase
	purchaseReturns  map[id.ID]purchase_return.PurchaseReturn
	supplierPayments map[id.ID]supplier_payment.SupplierPayment
	damagedItems     map[id.ID]damaged_item.DamagedItem
	salaryPayments   map[id.ID]salary_payment.SalaryPayment
}

func newState() *state {
	return &state{
		products:         make(map[id.ID]product.Product),
		customers:        make(map[id.ID]customer.Customer),
		employees:        make(map[id.ID]employee.Employee),
		stock:            make(map[id.ID]stock.Record),
		accounts:         make(map[id.ID]account.BankAccount),
		suppliers:        make(map[id.ID]supplier_ledger.Supplier),
		sales:            make(map[id.ID]sale.Sale),
		salesReturns:     make(map[id.ID]sales_return.SalesReturn),
		purchases:        make(map[id.ID]purchase.Purchase),
		purchaseReturns:  make(map[id.ID]purchase_return.PurchaseReturn),
		supplierPayments: make(map[id.ID]supplier_payment.SupplierPayment),
		damagedItems:     make(map[id.ID]damaged_item.DamagedItem),
		salaryPayments:   make(map[id.ID]salary_payment.SalaryPayment),
	}
}

func (s *state) clone() *state {
	return &state{
		products:         maps.Clone(s.products),
		customers:        maps.Clone(s.customers),
		employees:        maps.Clone(s.employees),
		stock:            maps.Clone(s.stock),
		accounts:         maps.Clone(s.accounts),
		suppliers:        maps.Clone(s.suppliers),
		entries:          slices.Clone(s.entries),
		sales:            maps.Clone(s.sales),
		salesReturns:     maps.Clone(s.salesReturns),
		purchases:        maps.Clone(s.purchases),
		purchaseReturns:  maps.Clone(s.purchaseReturns),
		supplierPayments: maps.Clone(s.supplierPayments),
		damagedItems:     maps.Clone(s.damagedItems),
		salaryPayments:   maps.Clone(s.salaryPayments),
	}
}

// Store is the in-memory database.
type Store struct {
	txMu sync.Mutex

	mu   sync.RWMutex
	data *state

	auditMu sync.Mutex
	audit   []audit.Entry

	seqMu     sync.Mutex
	sequences map[string]int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		data:      newState(),
		sequences: make(map[string]int64),
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// RunInTransaction implements tx.Manager. Transactions run one at a time;
// a nested call joins the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			logger.Error(ctx, "transaction panicked, rolled back", "panic", p)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
			logger.Debug(ctx, "transaction rolled back", "error", err)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("commit: %w", cerr)
	}
	return nil
}

func (s *Store) restore(snapshot *state) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

func (s *Store) read(fn func(*state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// page applies offset and limit to an already sorted slice.
func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func matchesSearch(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// sortByID orders values by id; UUIDv7 ids sort by creation time.
func sortByID[T any](items []T, key func(T) id.ID) {
	sort.Slice(items, func(i, j int) bool {
		return key(items[i]).String() < key(items[j]).String()
	})
}
