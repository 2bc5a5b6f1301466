package purchase

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
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/pkg/logger"
)

// Service is the purchase orchestrator.
type Service struct {
	repo      Repository
	returns   ReturnCounter
	products  documents.ProductReader
	stock     *stock.Service
	accounts  *account.Tracker
	ledger    *supplier_ledger.Engine
	numerator numerator.Generator
	txManager tx.Manager
	auditor   documents.Auditor
}

// ServiceConfig lists the collaborators of the purchase orchestrator.
type ServiceConfig struct {
	Repo      Repository
	Returns   ReturnCounter
	Products  documents.ProductReader
	Stock     *stock.Service
	Accounts  *account.Tracker
	Ledger    *supplier_ledger.Engine
	Numerator numerator.Generator
	TxManager tx.Manager
	Auditor   documents.Auditor
}

// NewService creates a new purchase orchestrator.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		returns:   cfg.Returns,
		products:  cfg.Products,
		stock:     cfg.Stock,
		accounts:  cfg.Accounts,
		ledger:    cfg.Ledger,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		auditor:   cfg.Auditor,
	}
}

// ItemInput is one purchased line; Quantity is in packages.
type ItemInput struct {
	ProductID       id.ID
	Quantity        types.Quantity
	UnitPrice       types.Money
	BatchNumber     string
	ExpiryDate      *time.Time
	ManufactureDate *time.Time
}

// CreateInput is the createPurchase payload.
type CreateInput struct {
	Number        string
	Date          time.Time
	SupplierID    id.ID
	AccountID     *id.ID
	InvoiceNumber string
	PaidAmount    types.Money
	Notes         string
	Items         []ItemInput
}

func (in CreateInput) validate() error {
	if id.IsNil(in.SupplierID) {
		return apperror.NewRequired("supplierId")
	}
	if len(in.Items) == 0 {
		return apperror.NewValidation("purchase must have at least one item").WithDetail("field", "items")
	}
	for i, it := range in.Items {
		if err := documents.ValidateLine(i+1, it.ProductID, it.Quantity, it.UnitPrice); err != nil {
			return err
		}
	}
	return documents.NonNegative("paidAmount", in.PaidAmount)
}

// Create records a purchase: stock goes up by the converted base
// quantities, the paid amount leaves the account, and the supplier ledger
// gets its purchase (and payment) rows, all in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Purchase, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	productIDs := make([]id.ID, len(in.Items))
	for i, it := range in.Items {
		productIDs[i] = it.ProductID
	}
	products, err := documents.ResolveProducts(ctx, s.products, productIDs)
	if err != nil {
		return nil, err
	}

	doc := &Purchase{
		SupplierID:    in.SupplierID,
		AccountID:     in.AccountID,
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		PaidAmount:    in.PaidAmount,
	}
	if err := documents.Prepare(ctx, s.numerator, numerator.PrefixPurchase, &doc.Document, in.Number, in.Date, in.Notes, appctx.ActorID(ctx)); err != nil {
		return nil, err
	}
	if doc.InvoiceNumber == "" {
		doc.InvoiceNumber = doc.Number
	}

	total := types.Zero()
	doc.Items = make([]Item, len(in.Items))
	for i, it := range in.Items {
		upp := products[it.ProductID].UnitsPerPackage
		amount := documents.LineAmount(it.Quantity, it.UnitPrice)
		doc.Items[i] = Item{
			ID:              id.New(),
			PurchaseID:      doc.ID,
			LineNo:          i + 1,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			UnitsPerPackage: upp,
			BaseQuantity:    stock.ConvertToBaseUnits(it.Quantity, upp),
			UnitPrice:       it.UnitPrice,
			Amount:          amount,
			BatchNumber:     it.BatchNumber,
			ExpiryDate:      it.ExpiryDate,
			ManufactureDate: it.ManufactureDate,
		}
		total = total.Add(amount)
	}
	doc.TotalAmount = total

	if doc.PaidAmount.GreaterThan(doc.TotalAmount) {
		return nil, apperror.NewValidation("paid amount cannot exceed purchase total").
			WithDetail("field", "paidAmount").
			WithDetail("total", doc.TotalAmount.String())
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}

		for _, it := range doc.Items {
			batch := &stock.Batch{
				BatchNumber:     it.BatchNumber,
				ExpiryDate:      it.ExpiryDate,
				ManufactureDate: it.ManufactureDate,
			}
			if _, err := s.stock.ApplyDelta(ctx, it.ProductID, it.BaseQuantity, batch); err != nil {
				return err
			}
		}

		if doc.AccountID != nil && doc.PaidAmount.IsPositive() {
			if _, err := s.accounts.Debit(ctx, *doc.AccountID, doc.PaidAmount); err != nil {
				return err
			}
		}

		return s.ledger.RecordPurchase(ctx, s.ledgerEntry(doc))
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogCreate(ctx, "purchase", doc.ID, doc.Number, map[string]any{
		"supplierId":    doc.SupplierID.String(),
		"invoiceNumber": doc.InvoiceNumber,
		"totalAmount":   doc.TotalAmount,
		"paidAmount":    doc.PaidAmount,
		"itemCount":     len(doc.Items),
	})

	logger.Info(ctx, "purchase created",
		"id", doc.ID,
		"number", doc.Number,
		"supplier_id", doc.SupplierID,
		"total", doc.TotalAmount,
	)

	return doc, nil
}

// Delete reverses everything Create did: stock, account, supplier
// aggregates and ledger rows, then removes the purchase.
func (s *Service) Delete(ctx context.Context, purchaseID id.ID) error {
	var doc *Purchase
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}

		if s.returns != nil {
			n, err := s.returns.CountByPurchase(ctx, purchaseID)
			if err != nil {
				return fmt.Errorf("count purchase returns: %w", err)
			}
			if n > 0 {
				return apperror.NewConflict("purchase has returns and cannot be deleted").
					WithDetail("purchase_id", purchaseID.String()).
					WithDetail("returns", n)
			}
		}

		for _, it := range doc.Items {
			if _, err := s.stock.ApplyDelta(ctx, it.ProductID, it.BaseQuantity.Neg(), nil); err != nil {
				return err
			}
		}

		if doc.AccountID != nil && doc.PaidAmount.IsPositive() {
			if _, err := s.accounts.ReverseDebit(ctx, *doc.AccountID, doc.PaidAmount); err != nil {
				return err
			}
		}

		if err := s.ledger.ReversePurchase(ctx, s.ledgerEntry(doc)); err != nil {
			return err
		}

		if err := s.repo.Delete(ctx, purchaseID); err != nil {
			return fmt.Errorf("delete purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.auditor.LogDelete(ctx, "purchase", doc.ID, doc.Number, map[string]any{
		"invoiceNumber": doc.InvoiceNumber,
		"totalAmount":   doc.TotalAmount,
		"itemsDeleted":  len(doc.Items),
	})

	logger.Info(ctx, "purchase deleted", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID returns the purchase with its items.
func (s *Service) GetByID(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	return s.repo.GetByID(ctx, purchaseID)
}

// List returns purchase headers.
func (s *Service) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Purchase], error) {
	return s.repo.List(ctx, filter.Normalize())
}

func (s *Service) ledgerEntry(doc *Purchase) supplier_ledger.PurchaseEntry {
	return supplier_ledger.PurchaseEntry{
		SupplierID:    doc.SupplierID,
		PurchaseID:    doc.ID,
		InvoiceNumber: doc.InvoiceNumber,
		TotalAmount:   doc.TotalAmount,
		PaidAmount:    doc.PaidAmount,
	}
}
