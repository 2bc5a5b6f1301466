// Package app wires repositories, the transaction manager and the numerator
// into the domain services.
package app

import (
	"fmt"
	"time"

	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/core/tx"
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
	"pharmaledger/internal/domain/loyalty"
	"pharmaledger/internal/domain/reconcile"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/internal/infrastructure/storage/memory"
)

// Repositories is the full set of persistence ports.
type Repositories struct {
	Products  product.Repository
	Customers customer.Repository
	Employees employee.Repository

	Stock          stock.Repository
	ProductChecker stock.ProductChecker
	Accounts       account.Repository
	Suppliers      supplier_ledger.Repository
	Audit          audit.Repository

	Sales            sale.Repository
	SalesReturns     sales_return.Repository
	Purchases        purchase.Repository
	PurchaseReturns  purchase_return.Repository
	SupplierPayments supplier_payment.Repository
	DamagedItems     damaged_item.Repository
	SalaryPayments   salary_payment.Repository
}

// MemoryRepositories exposes every repository of an in-memory store.
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Products:         store.Products(),
		Customers:        store.Customers(),
		Employees:        store.Employees(),
		Stock:            store.Stock(),
		ProductChecker:   store.Stock(),
		Accounts:         store.Accounts(),
		Suppliers:        store.Suppliers(),
		Audit:            store.Audit(),
		Sales:            store.Sales(),
		SalesReturns:     store.SalesReturns(),
		Purchases:        store.Purchases(),
		PurchaseReturns:  store.PurchaseReturns(),
		SupplierPayments: store.SupplierPayments(),
		DamagedItems:     store.DamagedItems(),
		SalaryPayments:   store.SalaryPayments(),
	}
}

// Deps configures NewServices.
type Deps struct {
	Repos     Repositories
	TxManager tx.Manager
	Numerator numerator.Generator

	// Snapshot runs the reconciler's reads; nil selects TxManager.
	Snapshot tx.Manager

	// LoyaltyRule is the CEL points rule; empty selects loyalty.DefaultRule.
	LoyaltyRule  string
	AuditTimeout time.Duration
}

// Services holds every domain service.
type Services struct {
	Audit *audit.Recorder

	Products  *product.Service
	Customers *customer.Service
	Employees *employee.Service

	Stock    *stock.Service
	Accounts *account.Tracker
	Ledger   *supplier_ledger.Engine
	Loyalty  *loyalty.Calculator

	Sales            *sale.Service
	SalesReturns     *sales_return.Service
	Purchases        *purchase.Service
	PurchaseReturns  *purchase_return.Service
	SupplierPayments *supplier_payment.Service
	DamagedItems     *damaged_item.Service
	SalaryPayments   *salary_payment.Service

	Reconcile *reconcile.Verifier
}

// NewServices builds the service graph.
func NewServices(d Deps) (*Services, error) {
	rule := d.LoyaltyRule
	if rule == "" {
		rule = loyalty.DefaultRule
	}
	calc, err := loyalty.NewCalculator(rule)
	if err != nil {
		return nil, fmt.Errorf("loyalty rule: %w", err)
	}

	snapshot := d.Snapshot
	if snapshot == nil {
		snapshot = d.TxManager
	}

	r := d.Repos
	rec := audit.NewRecorder(r.Audit, d.AuditTimeout)
	stockSvc := stock.NewService(r.Stock, r.ProductChecker, d.TxManager, rec)
	tracker := account.NewTracker(r.Accounts, d.TxManager, rec)
	ledger := supplier_ledger.NewEngine(r.Suppliers, d.TxManager, rec)

	return &Services{
		Audit: rec,

		Products:  product.NewService(r.Products, d.TxManager, d.Numerator, rec),
		Customers: customer.NewService(r.Customers, d.TxManager, rec),
		Employees: employee.NewService(r.Employees, d.TxManager, rec),

		Stock:    stockSvc,
		Accounts: tracker,
		Ledger:   ledger,
		Loyalty:  calc,

		Sales: sale.NewService(sale.ServiceConfig{
			Repo:      r.Sales,
			Products:  r.Products,
			Customers: r.Customers,
			Stock:     stockSvc,
			Accounts:  tracker,
			Loyalty:   calc,
			Numerator: d.Numerator,
			TxManager: d.TxManager,
			Auditor:   rec,
		}),
		SalesReturns: sales_return.NewService(sales_return.ServiceConfig{
			Repo:      r.SalesReturns,
			Sales:     r.Sales,
			Customers: r.Customers,
			Stock:     stockSvc,
			Accounts:  tracker,
			Loyalty:   calc,
			Numerator: d.Numerator,
			TxManager: d.TxManager,
			Auditor:   rec,
		}),
		Purchases: purchase.NewService(purchase.ServiceConfig{
			Repo:      r.Purchases,
			Returns:   r.PurchaseReturns,
			Products:  r.Products,
			Stock:     stockSvc,
			Accounts:  tracker,
			Ledger:    ledger,
			Numerator: d.Numerator,
			TxManager: d.TxManager,
			Auditor:   rec,
		}),
		PurchaseReturns: purchase_return.NewService(purchase_return.ServiceConfig{
			Repo:      r.PurchaseReturns,
			Purchases: r.Purchases,
			Stock:     stockSvc,
			Accounts:  tracker,
			Numerator: d.Numerator,
			TxManager: d.TxManager,
			Auditor:   rec,
		}),
		SupplierPayments: supplier_payment.NewService(supplier_payment.ServiceConfig{
			Repo:      r.SupplierPayments,
			Accounts:  tracker,
			Ledger:    ledger,
			Numerator: d.Numerator,
			TxManager: d.TxManager,
			Auditor:   rec,
		}),
		DamagedItems: damaged_item.NewService(damaged_item.ServiceConfig{
			Repo:      r.DamagedItems,
			Products:  r.Products,
			Stock:     stockSvc,
			Numerator: d.Numerator,
			TxManager: d.TxManager,
			Auditor:   rec,
		}),
		SalaryPayments: salary_payment.NewService(salary_payment.ServiceConfig{
			Repo:      r.SalaryPayments,
			Employees: r.Employees,
			Accounts:  tracker,
			Numerator: d.Numerator,
			TxManager: d.TxManager,
			Auditor:   rec,
		}),

		Reconcile: reconcile.NewVerifier(r.Accounts, r.Stock, r.Suppliers).WithSnapshot(snapshot),
	}, nil
}

// NewMemoryServices builds services over a fresh in-memory store.
func NewMemoryServices(loyaltyRule string) (*Services, *memory.Store, error) {
	store := memory.New()
	svcs, err := NewServices(Deps{
		Repos:        MemoryRepositories(store),
		TxManager:    store,
		Numerator:    store,
		LoyaltyRule:  loyaltyRule,
		AuditTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}
	return svcs, store, nil
}
