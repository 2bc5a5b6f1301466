// Package purchase_return provides the PurchaseReturn document: goods sent
// back to a supplier.
package purchase_return

import (
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// PurchaseReturn records goods returned against a purchase.
type PurchaseReturn struct {
	entity.Document

	PurchaseID id.ID  `db:"purchase_id" json:"purchaseId"`
	SupplierID id.ID  `db:"supplier_id" json:"supplierId"`
	AccountID  *id.ID `db:"account_id" json:"accountId,omitempty"`

	TotalAmount  types.Money `db:"total_amount" json:"totalAmount"`
	RefundAmount types.Money `db:"refund_amount" json:"refundAmount"`
	Reason       string      `db:"reason" json:"reason,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one returned line. Quantity leaves stock as entered.
type Item struct {
	ID        id.ID          `db:"id" json:"id"`
	ReturnID  id.ID          `db:"return_id" json:"returnId"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Amount    types.Money    `db:"amount" json:"amount"`
}
