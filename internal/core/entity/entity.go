// Package entity holds the records embedded by every catalog and document.
package entity

import (
	"context"
	"strings"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// Validatable records check their own fields without touching storage.
// Failures are *apperror.AppError values.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity is the primary key, a time-ordered UUIDv7.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`
}

func (b BaseEntity) GetID() id.ID { return b.ID }

func now() time.Time { return time.Now().UTC() }

// Catalog is embedded by reference data: products, customers, employees
// and suppliers. Code is optional but unique within its catalog when set.
type Catalog struct {
	BaseEntity
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewCatalog trims code and name and assigns a new id.
func NewCatalog(code, name string) Catalog {
	ts := now()
	return Catalog{
		BaseEntity: BaseEntity{ID: id.New()},
		Code:       strings.TrimSpace(code),
		Name:       strings.TrimSpace(name),
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

// Validate requires a non-blank name.
func (c *Catalog) Validate(context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewRequired("name")
	}
	return nil
}

// Touch stamps UpdatedAt.
func (c *Catalog) Touch() { c.UpdatedAt = now() }

// Document is embedded by the business events that move stock and money.
// A posted document is never edited; undoing one means deleting it, which
// reverses its effects.
type Document struct {
	BaseEntity
	Number    string    `db:"number" json:"number"`
	Date      time.Time `db:"date" json:"date"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewDocument dates a new document now.
func NewDocument(createdBy string) Document {
	ts := now()
	return Document{
		BaseEntity: BaseEntity{ID: id.New()},
		Date:       ts,
		CreatedAt:  ts,
		CreatedBy:  createdBy,
	}
}

func (d *Document) Validate(context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewRequired("date")
	}
	return nil
}

func (d Document) GetNumber() string { return d.Number }

// ValidateMoney rejects amounts the ledgers cannot store exactly.
func ValidateMoney(field string, amount types.Money) error {
	if !types.FitsStorage(amount) {
		return apperror.NewValidation(field+" must have at most 4 decimal places and 14 integer digits").
			WithDetail("field", field)
	}
	return nil
}
