// Package salary_payment provides the SalaryPayment document.
package salary_payment

import (
	"context"

	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/catalogs/employee"
	"pharmaledger/internal/domain/documents"
)

// SalaryPayment is a payroll disbursement to one employee.
type SalaryPayment struct {
	entity.Document

	EmployeeID    id.ID       `db:"employee_id" json:"employeeId"`
	AccountID     id.ID       `db:"account_id" json:"accountId"`
	Amount        types.Money `db:"amount" json:"amount"`
	Period        string      `db:"period" json:"period"`
	PaymentMethod string      `db:"payment_method" json:"paymentMethod,omitempty"`
}

// Repository defines persistence for salary payments.
type Repository interface {
	Create(ctx context.Context, p *SalaryPayment) error
	GetByID(ctx context.Context, id id.ID) (*SalaryPayment, error)
	List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*SalaryPayment], error)
}

// EmployeeReader resolves the payee.
type EmployeeReader interface {
	GetByID(ctx context.Context, id id.ID) (*employee.Employee, error)
}
