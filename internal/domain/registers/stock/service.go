package stock

import (
	"context"
	"fmt"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/core/types"
	"pharmaledger/pkg/logger"
)

// Auditor records manual stock adjustments.
type Auditor interface {
	LogUpdate(ctx context.Context, entityType string, entityID id.ID, entityName string, old, changes map[string]any)
}

// Service applies quantity deltas to inventory records.
// ApplyDelta expects to run inside the caller's transaction;
// UpdateQuantity opens its own.
type Service struct {
	repo     Repository
	products ProductChecker
	txm      tx.Manager
	auditor  Auditor
}

// NewService creates a new stock service.
func NewService(repo Repository, products ProductChecker, txm tx.Manager, auditor Auditor) *Service {
	return &Service{
		repo:     repo,
		products: products,
		txm:      txm,
		auditor:  auditor,
	}
}

// ConvertToBaseUnits turns a purchase quantity expressed in packages into base units.
// Products with unitsPerPackage <= 1 are bought in base units already.
func ConvertToBaseUnits(quantity types.Quantity, unitsPerPackage int64) types.Quantity {
	if unitsPerPackage > 1 {
		return quantity.MulInt(unitsPerPackage)
	}
	return quantity
}

// ApplyDelta adds a signed base-unit delta to the product's stock and returns
// the resulting quantity. The result is floored at zero without error.
// Batch metadata, when given, replaces what the record held.
func (s *Service) ApplyDelta(ctx context.Context, productID id.ID, delta types.Quantity, batch *Batch) (types.Quantity, error) {
	rec, found, err := s.repo.GetForUpdate(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("lock stock %s: %w", productID, err)
	}
	if !found {
		rec = &Record{ProductID: productID}
	}

	next := rec.Quantity + delta
	if next < 0 {
		logger.Info(ctx, "stock clamped at zero",
			"product_id", productID,
			"quantity", rec.Quantity,
			"delta", delta,
		)
		next = 0
	}
	rec.Quantity = next

	if !batch.empty() {
		rec.BatchNumber = batch.BatchNumber
		rec.ExpiryDate = batch.ExpiryDate
		rec.ManufactureDate = batch.ManufactureDate
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return 0, fmt.Errorf("save stock %s: %w", productID, err)
	}
	return next, nil
}

// UpdateQuantity is the manual adjustment operation: it applies a signed
// delta to an existing product in its own transaction.
func (s *Service) UpdateQuantity(ctx context.Context, productID id.ID, delta types.Quantity) (*Record, error) {
	if id.IsNil(productID) {
		return nil, apperror.NewRequired("productId")
	}

	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return nil, apperror.NewNotFound("product", productID.String())
	}

	var before types.Quantity
	var rec *Record
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, _, err := s.repo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if current != nil {
			before = current.Quantity
		}

		if _, err := s.ApplyDelta(ctx, productID, delta, nil); err != nil {
			return err
		}
		rec, _, err = s.repo.Get(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.auditor != nil {
		s.auditor.LogUpdate(ctx, "inventory", productID, productID.String(),
			map[string]any{"quantity": before},
			map[string]any{"quantity": rec.Quantity},
		)
	}
	logger.Info(ctx, "stock adjusted", "product_id", productID, "delta", delta, "quantity", rec.Quantity)

	return rec, nil
}

// Get returns the product's stock; products never stocked report zero.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Record, error) {
	rec, found, err := s.repo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Record{ProductID: productID}, nil
	}
	return rec, nil
}

// List returns stock records matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}
