// Package purchase provides the Purchase document, its orchestrator and its reversal.
package purchase

import (
	"time"

	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// Purchase is a supplier invoice received into stock.
type Purchase struct {
	entity.Document

	SupplierID    id.ID  `db:"supplier_id" json:"supplierId"`
	AccountID     *id.ID `db:"account_id" json:"accountId,omitempty"`
	InvoiceNumber string `db:"invoice_number" json:"invoiceNumber,omitempty"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`
	PaidAmount  types.Money `db:"paid_amount" json:"paidAmount"`

	Items []Item `db:"-" json:"items"`
}

// Item is one purchased line. Quantity and UnitPrice are per package as
// entered; BaseQuantity is what went into stock, so a deletion takes back
// exactly that.
type Item struct {
	ID              id.ID          `db:"id" json:"id"`
	PurchaseID      id.ID          `db:"purchase_id" json:"purchaseId"`
	LineNo          int            `db:"line_no" json:"lineNo"`
	ProductID       id.ID          `db:"product_id" json:"productId"`
	Quantity        types.Quantity `db:"quantity" json:"quantity"`
	UnitsPerPackage int64          `db:"units_per_package" json:"unitsPerPackage"`
	BaseQuantity    types.Quantity `db:"base_quantity" json:"baseQuantity"`
	UnitPrice       types.Money    `db:"unit_price" json:"unitPrice"`
	Amount          types.Money    `db:"amount" json:"amount"`

	BatchNumber     string     `db:"batch_number" json:"batchNumber,omitempty"`
	ExpiryDate      *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	ManufactureDate *time.Time `db:"manufacture_date" json:"manufactureDate,omitempty"`
}
