package customer

import (
	"context"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
)

// Repository defines persistence for customers.
type Repository interface {
	domain.CatalogRepository[*Customer]

	// GetForUpdate retrieves the customer with a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Customer, error)

	// UpdateBalances writes loyalty points and lifetime purchases.
	UpdateBalances(ctx context.Context, id id.ID, points int64, totalPurchases types.Money) error
}

// Service provides business logic for the Customer catalog.
type Service struct {
	*domain.CatalogService[*Customer]
}

// NewService creates a new Customer service.
func NewService(repo Repository, txm tx.Manager, auditor domain.Auditor) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService[*Customer]("customer", repo, txm, auditor),
	}
}
