// Package sales_return provides the SalesReturn document and its orchestrator.
package sales_return

import (
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// SalesReturn records goods a customer brought back.
type SalesReturn struct {
	entity.Document

	SaleID     id.ID  `db:"sale_id" json:"saleId"`
	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`
	AccountID  *id.ID `db:"account_id" json:"accountId,omitempty"`

	TotalAmount    types.Money `db:"total_amount" json:"totalAmount"`
	RefundAmount   types.Money `db:"refund_amount" json:"refundAmount"`
	PointsDeducted int64       `db:"points_deducted" json:"pointsDeducted"`
	Reason         string      `db:"reason" json:"reason,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one returned line, in base units.
type Item struct {
	ID        id.ID          `db:"id" json:"id"`
	ReturnID  id.ID          `db:"return_id" json:"returnId"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Amount    types.Money    `db:"amount" json:"amount"`
}
