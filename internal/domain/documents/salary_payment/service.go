package salary_payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/pkg/logger"
)

// Service is the salary-payment orchestrator.
type Service struct {
	repo      Repository
	employees EmployeeReader
	accounts  *account.Tracker
	numerator numerator.Generator
	txManager tx.Manager
	auditor   documents.Auditor
}

// ServiceConfig lists the collaborators of the salary-payment orchestrator.
type ServiceConfig struct {
	Repo      Repository
	Employees EmployeeReader
	Accounts  *account.Tracker
	Numerator numerator.Generator
	TxManager tx.Manager
	Auditor   documents.Auditor
}

// NewService creates a new salary-payment orchestrator.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		employees: cfg.Employees,
		accounts:  cfg.Accounts,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		auditor:   cfg.Auditor,
	}
}

// CreateInput is the createSalaryPayment payload. A zero Amount pays the
// employee's configured salary; an empty Period is the payment month.
type CreateInput struct {
	Number        string
	Date          time.Time
	EmployeeID    id.ID
	AccountID     id.ID
	Amount        types.Money
	Period        string
	PaymentMethod string
	Notes         string
}

func (in CreateInput) validate() error {
	if id.IsNil(in.EmployeeID) {
		return apperror.NewRequired("employeeId")
	}
	if id.IsNil(in.AccountID) {
		return apperror.NewRequired("accountId")
	}
	return documents.NonNegative("amount", in.Amount)
}

// Create pays an employee out of an account that must cover the amount.
func (s *Service) Create(ctx context.Context, in CreateInput) (*SalaryPayment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	emp, err := s.employees.GetByID(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !emp.Active {
		return nil, apperror.NewBusinessRule("EMPLOYEE_INACTIVE", "employee is not active").
			WithDetail("employee_id", emp.ID.String())
	}

	amount := in.Amount
	if amount.IsZero() {
		amount = emp.Salary
	}
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("amount must be positive").WithDetail("field", "amount")
	}

	doc := &SalaryPayment{
		EmployeeID:    emp.ID,
		AccountID:     in.AccountID,
		Amount:        amount,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
	}
	if err := documents.Prepare(ctx, s.numerator, numerator.PrefixSalaryPayment, &doc.Document, in.Number, in.Date, in.Notes, appctx.ActorID(ctx)); err != nil {
		return nil, err
	}
	doc.Period = strings.TrimSpace(in.Period)
	if doc.Period == "" {
		doc.Period = doc.Date.Format("2006-01")
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.accounts.RequireFunds(ctx, doc.AccountID, doc.Amount); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create salary payment: %w", err)
		}
		_, err := s.accounts.Debit(ctx, doc.AccountID, doc.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogCreate(ctx, "salary_payment", doc.ID, emp.Name, map[string]any{
		"employeeId": doc.EmployeeID.String(),
		"accountId":  doc.AccountID.String(),
		"amount":     doc.Amount,
		"period":     doc.Period,
	})

	logger.Info(ctx, "salary paid",
		"id", doc.ID,
		"employee_id", doc.EmployeeID,
		"amount", doc.Amount,
		"period", doc.Period,
	)

	return doc, nil
}

// GetByID returns the payment.
func (s *Service) GetByID(ctx context.Context, paymentID id.ID) (*SalaryPayment, error) {
	return s.repo.GetByID(ctx, paymentID)
}

// List returns payments.
func (s *Service) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*SalaryPayment], error) {
	return s.repo.List(ctx, filter.Normalize())
}
