package product

import (
	"context"
	"fmt"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain"
)

// Repository defines persistence for products.
type Repository interface {
	domain.CatalogRepository[*Product]
}

// Service provides business logic for the Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Product service.
func NewService(repo Repository, txm tx.Manager, gen numerator.Generator, auditor domain.Auditor) *Service {
	base := domain.NewCatalogService[*Product]("product", repo, txm, auditor)

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
	}
	base.BeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate assigns a code when missing and rejects duplicates.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.UnitsPerPackage == 0 {
		p.UnitsPerPackage = 1
	}

	if p.Code == "" {
		code, err := s.numerator.Next(ctx, numerator.Config{Prefix: "PRD", PadWidth: 6}, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
		return nil
	}

	exists, err := s.repo.ExistsByCode(ctx, p.Code)
	if err != nil {
		return fmt.Errorf("check product code: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("product", "code", p.Code)
	}
	return nil
}
