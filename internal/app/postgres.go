package app

import (
	"context"
	"fmt"

	"pharmaledger/internal/config"
	"pharmaledger/internal/infrastructure/storage/postgres"
	"pharmaledger/internal/infrastructure/storage/postgres/catalog_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/document_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/register_repo"
	pgnumerator "pharmaledger/pkg/numerator"
)

// PostgresRepositories builds every repository on one transaction manager.
func PostgresRepositories(txm *postgres.TxManager, auditCompressAbove int) (Repositories, error) {
	auditRepo, err := postgres.NewAuditRepo(txm, auditCompressAbove)
	if err != nil {
		return Repositories{}, fmt.Errorf("audit repository: %w", err)
	}

	stockRepo := register_repo.NewStockRepo(txm)
	return Repositories{
		Products:         catalog_repo.NewProductRepo(txm),
		Customers:        catalog_repo.NewCustomerRepo(txm),
		Employees:        catalog_repo.NewEmployeeRepo(txm),
		Stock:            stockRepo,
		ProductChecker:   stockRepo,
		Accounts:         register_repo.NewAccountRepo(txm),
		Suppliers:        register_repo.NewSupplierRepo(txm),
		Audit:            auditRepo,
		Sales:            document_repo.NewSaleRepo(txm),
		SalesReturns:     document_repo.NewSalesReturnRepo(txm),
		Purchases:        document_repo.NewPurchaseRepo(txm),
		PurchaseReturns:  document_repo.NewPurchaseReturnRepo(txm),
		SupplierPayments: document_repo.NewSupplierPaymentRepo(txm),
		DamagedItems:     document_repo.NewDamagedItemRepo(txm),
		SalaryPayments:   document_repo.NewSalaryPaymentRepo(txm),
	}, nil
}

// PostgresBackend is a live database wiring: the pool, its transaction
// manager and the numerator drawing from sys_sequences.
type PostgresBackend struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Numerator *pgnumerator.Service
}

// OpenPostgres connects the pool described by cfg.
func OpenPostgres(ctx context.Context, cfg config.DBConfig) (*PostgresBackend, error) {
	pool, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	txm := postgres.NewTxManager(pool)
	return &PostgresBackend{
		Pool:      pool,
		TxManager: txm,
		Numerator: pgnumerator.New(pool, pgnumerator.Options{
			Strategy: pgnumerator.StrategyStrict,
			Scoped: func(ctx context.Context) pgnumerator.Querier {
				if t := txm.Current(ctx); t != nil {
					return t
				}
				return nil
			},
		}),
	}, nil
}

// Close releases the pool.
func (b *PostgresBackend) Close() {
	b.Pool.Close()
}

// NewPostgresServices builds services over an open backend.
func NewPostgresServices(b *PostgresBackend, cfg *config.Config) (*Services, error) {
	repos, err := PostgresRepositories(b.TxManager, cfg.Audit.CompressAbove)
	if err != nil {
		return nil, err
	}
	return NewServices(Deps{
		Repos:        repos,
		TxManager:    b.TxManager,
		Numerator:    b.Numerator,
		Snapshot:     b.TxManager.Snapshot(),
		LoyaltyRule:  cfg.Loyalty.Rule,
		AuditTimeout: cfg.Audit.WriteTimeout,
	})
}
