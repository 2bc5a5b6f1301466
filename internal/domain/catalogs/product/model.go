// Package product provides the Product catalog: sellable items tracked in base units.
package product

import (
	"context"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/types"
)

// Product is a sellable item. Stock is always counted in base units
// (tablets); purchases may be entered in packages of UnitsPerPackage.
type Product struct {
	entity.Catalog

	// UnitsPerPackage is the number of base units in one purchase package.
	// Values <= 1 mean the product is bought and sold in the same unit.
	UnitsPerPackage int64 `db:"units_per_package" json:"unitsPerPackage"`

	SellingPrice  types.Money `db:"selling_price" json:"sellingPrice"`
	PurchasePrice types.Money `db:"purchase_price" json:"purchasePrice"`

	Barcode      string `db:"barcode" json:"barcode,omitempty"`
	Manufacturer string `db:"manufacturer" json:"manufacturer,omitempty"`
}

// NewProduct creates a product with one base unit per package.
func NewProduct(code, name string) *Product {
	return &Product{
		Catalog:         entity.NewCatalog(code, name),
		UnitsPerPackage: 1,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if p.UnitsPerPackage < 0 {
		return apperror.NewValidation("units per package cannot be negative").
			WithDetail("field", "unitsPerPackage")
	}
	if p.SellingPrice.IsNegative() || p.PurchasePrice.IsNegative() {
		return apperror.NewValidation("prices cannot be negative")
	}
	if err := entity.ValidateMoney("sellingPrice", p.SellingPrice); err != nil {
		return err
	}
	return entity.ValidateMoney("purchasePrice", p.PurchasePrice)
}

func (p *Product) DisplayName() string { return p.Name }

func (p *Product) AuditFields() map[string]any {
	return map[string]any{
		"code":            p.Code,
		"name":            p.Name,
		"unitsPerPackage": p.UnitsPerPackage,
		"sellingPrice":    p.SellingPrice,
		"purchasePrice":   p.PurchasePrice,
		"barcode":         p.Barcode,
		"manufacturer":    p.Manufacturer,
	}
}
