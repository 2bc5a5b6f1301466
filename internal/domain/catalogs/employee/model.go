// Package employee provides the Employee catalog (salary payees).
package employee

import (
	"context"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/types"
)

// Employee is a member of staff who receives salary payments.
type Employee struct {
	entity.Catalog

	Position string      `db:"position" json:"position,omitempty"`
	Phone    string      `db:"phone" json:"phone,omitempty"`
	Salary   types.Money `db:"salary" json:"salary"`
	Active   bool        `db:"active" json:"active"`
}

// NewEmployee creates an active employee.
func NewEmployee(code, name string) *Employee {
	return &Employee{Catalog: entity.NewCatalog(code, name), Active: true}
}

// Validate implements entity.Validatable.
func (e *Employee) Validate(ctx context.Context) error {
	if err := e.Catalog.Validate(ctx); err != nil {
		return err
	}
	if e.Salary.IsNegative() {
		return apperror.NewValidation("salary cannot be negative").WithDetail("field", "salary")
	}
	return entity.ValidateMoney("salary", e.Salary)
}

func (e *Employee) DisplayName() string { return e.Name }

func (e *Employee) AuditFields() map[string]any {
	return map[string]any{
		"code":     e.Code,
		"name":     e.Name,
		"position": e.Position,
		"phone":    e.Phone,
		"salary":   e.Salary,
		"active":   e.Active,
	}
}
