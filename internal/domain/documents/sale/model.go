// Package sale provides the Sale document and its orchestrator.
package sale

import (
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// Status tracks how much of a sale has been returned.
type Status string

const (
	StatusCompleted         Status = "completed"
	StatusPartiallyReturned Status = "partially_returned"
	StatusRefunded          Status = "refunded"
)

func (s Status) rank() int {
	switch s {
	case StatusPartiallyReturned:
		return 1
	case StatusRefunded:
		return 2
	default:
		return 0
	}
}

// Sale is a retail sale. Only Status changes after creation;
// TotalAmount is kept as sold for reporting.
type Sale struct {
	entity.Document

	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`
	AccountID  *id.ID `db:"account_id" json:"accountId,omitempty"`

	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	Discount       types.Money `db:"discount" json:"discount"`
	PointsRedeemed int64       `db:"points_redeemed" json:"pointsRedeemed"`
	TotalAmount    types.Money `db:"total_amount" json:"totalAmount"`
	PaidAmount     types.Money `db:"paid_amount" json:"paidAmount"`
	PointsEarned   int64       `db:"points_earned" json:"pointsEarned"`

	PaymentMethod string `db:"payment_method" json:"paymentMethod,omitempty"`
	Status        Status `db:"status" json:"status"`

	Items []Item `db:"-" json:"items"`
}

// Item is one sold line, in base units.
type Item struct {
	ID        id.ID          `db:"id" json:"id"`
	SaleID    id.ID          `db:"sale_id" json:"saleId"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Amount    types.Money    `db:"amount" json:"amount"`
}

// SoldQuantities sums item quantities per product.
func (s *Sale) SoldQuantities() map[id.ID]types.Quantity {
	out := make(map[id.ID]types.Quantity, len(s.Items))
	for _, it := range s.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

// NextStatus derives the status from the quantities returned so far across
// every return of the sale: refunded when every line is fully returned,
// partially_returned when some line is returned in part, otherwise completed.
// The result never ranks below current, so a refunded sale stays refunded.
func NextStatus(current Status, sold, returned map[id.ID]types.Quantity) Status {
	all := len(sold) > 0
	partial := false
	for productID, qty := range sold {
		r := returned[productID]
		if r < qty {
			all = false
		}
		if r > 0 && r < qty {
			partial = true
		}
	}

	candidate := StatusCompleted
	switch {
	case all:
		candidate = StatusRefunded
	case partial:
		candidate = StatusPartiallyReturned
	}

	if candidate.rank() < current.rank() {
		return current
	}
	return candidate
}
