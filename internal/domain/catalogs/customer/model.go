// Package customer provides the Customer catalog with loyalty balances.
package customer

import (
	"context"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/types"
)

// Customer is a registered buyer.
// LoyaltyPoints and TotalPurchases are owned by the sale and sales-return flows;
// catalog updates never write them.
type Customer struct {
	entity.Catalog

	Phone string `db:"phone" json:"phone,omitempty"`
	Email string `db:"email" json:"email,omitempty"`

	LoyaltyPoints  int64       `db:"loyalty_points" json:"loyaltyPoints"`
	TotalPurchases types.Money `db:"total_purchases" json:"totalPurchases"`
}

// NewCustomer creates a customer with no points.
func NewCustomer(code, name string) *Customer {
	return &Customer{Catalog: entity.NewCatalog(code, name)}
}

// Validate implements entity.Validatable.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if c.LoyaltyPoints < 0 {
		return apperror.NewValidation("loyalty points cannot be negative")
	}
	return nil
}

func (c *Customer) DisplayName() string { return c.Name }

func (c *Customer) AuditFields() map[string]any {
	return map[string]any{
		"code":  c.Code,
		"name":  c.Name,
		"phone": c.Phone,
		"email": c.Email,
	}
}
