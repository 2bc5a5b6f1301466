// Package documents holds what the business-event orchestrators share:
// audit and catalog contracts, numbering and line validation.
package documents

import (
	"context"
	"fmt"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/catalogs/product"
)

// Auditor receives post-commit audit events. audit.Recorder implements it.
type Auditor interface {
	LogCreate(ctx context.Context, entityType string, entityID id.ID, entityName string, payload map[string]any)
	LogUpdate(ctx context.Context, entityType string, entityID id.ID, entityName string, old, changes map[string]any)
	LogDelete(ctx context.Context, entityType string, entityID id.ID, entityName string, payload map[string]any)
}

// ProductReader resolves product references on document lines.
type ProductReader interface {
	GetByID(ctx context.Context, id id.ID) (*product.Product, error)
}

// ListFilter narrows document listings by business date.
type ListFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// Normalize applies the default page size.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether date falls inside the filter's range.
func (f ListFilter) Matches(date time.Time) bool {
	if f.DateFrom != nil && date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && date.After(*f.DateTo) {
		return false
	}
	return true
}

// Prepare fills a new document header: date, actor and number.
// The number is drawn before the business transaction starts.
func Prepare(ctx context.Context, gen numerator.Generator, prefix string, doc *entity.Document, number string, date time.Time, notes, actor string) error {
	*doc = entity.NewDocument(actor)
	if !date.IsZero() {
		doc.Date = date.UTC()
	}
	doc.Notes = notes

	if number != "" {
		doc.Number = number
		return nil
	}
	next, err := gen.Next(ctx, numerator.DefaultConfig(prefix), doc.Date)
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	doc.Number = next
	return nil
}

// ResolveProducts loads every distinct product referenced by lines.
// A missing product is a NotFound carrying the offending line.
func ResolveProducts(ctx context.Context, products ProductReader, productIDs []id.ID) (map[id.ID]*product.Product, error) {
	out := make(map[id.ID]*product.Product, len(productIDs))
	for i, pid := range productIDs {
		if _, ok := out[pid]; ok {
			continue
		}
		p, err := products.GetByID(ctx, pid)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewNotFound("product", pid.String()).WithDetail("line", i+1)
			}
			return nil, fmt.Errorf("load product %s: %w", pid, err)
		}
		out[pid] = p
	}
	return out, nil
}

// ValidateLine checks one document line: product set, positive quantity,
// non-negative storable price.
func ValidateLine(line int, productID id.ID, quantity types.Quantity, unitPrice types.Money) error {
	if id.IsNil(productID) {
		return apperror.NewRequired("productId").WithDetail("line", line)
	}
	if !quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("line", line)
	}
	if unitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice").
			WithDetail("line", line)
	}
	if !types.FitsStorage(unitPrice) {
		return apperror.NewValidation("unit price must have at most 4 decimal places").
			WithDetail("field", "unitPrice").
			WithDetail("line", line)
	}
	return nil
}

// NonNegative rejects a negative amount for field.
func NonNegative(field string, amount types.Money) error {
	if amount.IsNegative() {
		return apperror.NewValidation(field+" cannot be negative").WithDetail("field", field)
	}
	return entity.ValidateMoney(field, amount)
}

// LineAmount is quantity * unitPrice rounded to cents.
func LineAmount(quantity types.Quantity, unitPrice types.Money) types.Money {
	return quantity.Decimal().Mul(unitPrice).Round(2)
}
