package supplier_payment

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
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/pkg/logger"
)

// Service is the supplier-payment orchestrator.
type Service struct {
	repo      Repository
	accounts  *account.Tracker
	ledger    *supplier_ledger.Engine
	numerator numerator.Generator
	txManager tx.Manager
	auditor   documents.Auditor
}

// ServiceConfig lists the collaborators of the supplier-payment orchestrator.
type ServiceConfig struct {
	Repo      Repository
	Accounts  *account.Tracker
	Ledger    *supplier_ledger.Engine
	Numerator numerator.Generator
	TxManager tx.Manager
	Auditor   documents.Auditor
}

// NewService creates a new supplier-payment orchestrator.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		accounts:  cfg.Accounts,
		ledger:    cfg.Ledger,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		auditor:   cfg.Auditor,
	}
}

// CreateInput is the recordSupplierPayment payload.
type CreateInput struct {
	Number        string
	Date          time.Time
	SupplierID    id.ID
	AccountID     id.ID
	Amount        types.Money
	PaymentMethod string
	Reference     string
	Notes         string
}

func (in CreateInput) validate() error {
	if id.IsNil(in.SupplierID) {
		return apperror.NewRequired("supplierId")
	}
	if id.IsNil(in.AccountID) {
		return apperror.NewRequired("accountId")
	}
	if !in.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").WithDetail("field", "amount")
	}
	return documents.NonNegative("amount", in.Amount)
}

// Create pays a supplier. The account must cover the amount; otherwise
// InsufficientFunds is returned and nothing is written.
func (s *Service) Create(ctx context.Context, in CreateInput) (*SupplierPayment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	doc := &SupplierPayment{
		SupplierID:    in.SupplierID,
		AccountID:     in.AccountID,
		Amount:        in.Amount,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Reference:     strings.TrimSpace(in.Reference),
	}
	if err := documents.Prepare(ctx, s.numerator, numerator.PrefixSupplierPay, &doc.Document, in.Number, in.Date, in.Notes, appctx.ActorID(ctx)); err != nil {
		return nil, err
	}

	var supplierName string
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.accounts.RequireFunds(ctx, doc.AccountID, doc.Amount); err != nil {
			return err
		}

		description := "Payment " + doc.Number
		if doc.Reference != "" {
			description += " (" + doc.Reference + ")"
		}
		entry, err := s.ledger.RecordPayment(ctx, doc.SupplierID, doc.ID, doc.Amount, description)
		if err != nil {
			return err
		}
		doc.LedgerEntryID = &entry.ID

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create supplier payment: %w", err)
		}

		if _, err := s.accounts.Debit(ctx, doc.AccountID, doc.Amount); err != nil {
			return err
		}

		sup, err := s.ledger.GetSupplier(ctx, doc.SupplierID)
		if err != nil {
			return err
		}
		supplierName = sup.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogCreate(ctx, "supplier_payment", doc.ID, doc.Number, map[string]any{
		"supplierId":   doc.SupplierID.String(),
		"supplierName": supplierName,
		"accountId":    doc.AccountID.String(),
		"amount":       doc.Amount,
	})

	logger.Info(ctx, "supplier payment recorded",
		"id", doc.ID,
		"supplier_id", doc.SupplierID,
		"amount", doc.Amount,
	)

	return doc, nil
}

// GetByID returns the payment.
func (s *Service) GetByID(ctx context.Context, paymentID id.ID) (*SupplierPayment, error) {
	return s.repo.GetByID(ctx, paymentID)
}

// List returns payments.
func (s *Service) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*SupplierPayment], error) {
	return s.repo.List(ctx, filter.Normalize())
}
