package employee

import (
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain"
)

// Repository defines persistence for employees.
type Repository interface {
	domain.CatalogRepository[*Employee]
}

// Service provides business logic for the Employee catalog.
type Service struct {
	*domain.CatalogService[*Employee]
}

// NewService creates a new Employee service.
func NewService(repo Repository, txm tx.Manager, auditor domain.Auditor) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService[*Employee]("employee", repo, txm, auditor),
	}
}
