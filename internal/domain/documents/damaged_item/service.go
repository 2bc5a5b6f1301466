package damaged_item

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/pkg/logger"
)

// Service is the damaged-item write-off orchestrator.
type Service struct {
	repo      Repository
	products  documents.ProductReader
	stock     *stock.Service
	numerator numerator.Generator
	txManager tx.Manager
	auditor   documents.Auditor
}

// ServiceConfig lists the collaborators of the write-off orchestrator.
type ServiceConfig struct {
	Repo      Repository
	Products  documents.ProductReader
	Stock     *stock.Service
	Numerator numerator.Generator
	TxManager tx.Manager
	Auditor   documents.Auditor
}

// NewService creates a new write-off orchestrator.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		products:  cfg.Products,
		stock:     cfg.Stock,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		auditor:   cfg.Auditor,
	}
}

// CreateInput is the createDamagedItem payload.
type CreateInput struct {
	Number      string
	Date        time.Time
	ProductID   id.ID
	Quantity    types.Quantity
	Reason      string
	BatchNumber string
	Notes       string
}

func (in CreateInput) validate() error {
	if id.IsNil(in.ProductID) {
		return apperror.NewRequired("productId")
	}
	if !in.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return apperror.NewRequired("reason")
	}
	return nil
}

func normalizeReason(reason string) string {
	switch r := strings.ToLower(strings.TrimSpace(reason)); r {
	case ReasonExpired, ReasonDamaged, ReasonLost:
		return r
	default:
		return ReasonOther
	}
}

// Create writes off stock. Writing off more than is on hand empties the
// record without error.
func (s *Service) Create(ctx context.Context, in CreateInput) (*DamagedItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	doc := &DamagedItem{
		ProductID:     p.ID,
		Quantity:      in.Quantity,
		Reason:        normalizeReason(in.Reason),
		BatchNumber:   strings.TrimSpace(in.BatchNumber),
		EstimatedLoss: documents.LineAmount(in.Quantity, p.PurchasePrice),
	}
	notes := in.Notes
	if doc.Reason == ReasonOther && notes == "" {
		notes = strings.TrimSpace(in.Reason)
	}
	if err := documents.Prepare(ctx, s.numerator, numerator.PrefixDamagedItem, &doc.Document, in.Number, in.Date, notes, appctx.ActorID(ctx)); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		remaining, err := s.stock.ApplyDelta(ctx, doc.ProductID, doc.Quantity.Neg(), nil)
		if err != nil {
			return err
		}
		doc.Remaining = remaining

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create damaged item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogCreate(ctx, "damaged_item", doc.ID, p.Name, map[string]any{
		"productId":     doc.ProductID.String(),
		"quantity":      doc.Quantity,
		"reason":        doc.Reason,
		"estimatedLoss": doc.EstimatedLoss,
	})

	logger.Info(ctx, "stock written off",
		"id", doc.ID,
		"product_id", doc.ProductID,
		"quantity", doc.Quantity,
		"remaining", doc.Remaining,
	)

	return doc, nil
}

// GetByID returns the write-off.
func (s *Service) GetByID(ctx context.Context, itemID id.ID) (*DamagedItem, error) {
	return s.repo.GetByID(ctx, itemID)
}

// List returns write-offs.
func (s *Service) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*DamagedItem], error) {
	return s.repo.List(ctx, filter.Normalize())
}
