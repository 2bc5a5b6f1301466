// Package damaged_item provides the DamagedItem write-off document.
package damaged_item

import (
	"context"

	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
)

// Reasons accepted for a write-off. Anything else is recorded as ReasonOther.
const (
	ReasonExpired = "expired"
	ReasonDamaged = "damaged"
	ReasonLost    = "lost"
	ReasonOther   = "other"
)

// DamagedItem removes unsellable stock of one product.
type DamagedItem struct {
	entity.Document

	ProductID   id.ID          `db:"product_id" json:"productId"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	Reason      string         `db:"reason" json:"reason"`
	BatchNumber string         `db:"batch_number" json:"batchNumber,omitempty"`

	// EstimatedLoss is quantity at the product's purchase price.
	EstimatedLoss types.Money `db:"estimated_loss" json:"estimatedLoss"`

	// Remaining is the stock left after the write-off.
	Remaining types.Quantity `db:"remaining" json:"remaining"`
}

// Repository defines persistence for damaged-item records.
type Repository interface {
	Create(ctx context.Context, d *DamagedItem) error
	GetByID(ctx context.Context, id id.ID) (*DamagedItem, error)
	List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*DamagedItem], error)
}
