// Package stock is the inventory quantity resolver: one record per product,
// counted in base units and never negative.
package stock

import (
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// Record is the current stock of one product.
// Created lazily on the first stock-affecting event and never deleted.
type Record struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	// Batch metadata of the most recent increment that carried it.
	BatchNumber     string     `db:"batch_number" json:"batchNumber,omitempty"`
	ExpiryDate      *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	ManufactureDate *time.Time `db:"manufacture_date" json:"manufactureDate,omitempty"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Batch carries lot metadata from a purchase line. It is not versioned:
// each increment overwrites what the record held before.
type Batch struct {
	BatchNumber     string
	ExpiryDate      *time.Time
	ManufactureDate *time.Time
}

func (b *Batch) empty() bool {
	return b == nil || (b.BatchNumber == "" && b.ExpiryDate == nil && b.ManufactureDate == nil)
}

// ListFilter narrows stock listings.
type ListFilter struct {
	ProductIDs  []id.ID
	ExcludeZero bool
	// ExpiringBefore keeps records whose expiry date is earlier than the given time.
	ExpiringBefore *time.Time
	Limit          int
	Offset         int
}
