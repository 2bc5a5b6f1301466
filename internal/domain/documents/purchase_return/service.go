package purchase_return

import (
	"context"
	"fmt"
	"time"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
	"pharmaledger/internal/domain/documents/purchase"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/pkg/logger"
)

// Service is the purchase-return orchestrator. The supplier ledger is not
// touched by returns.
type Service struct {
	repo      Repository
	purchases PurchaseReader
	stock     *stock.Service
	accounts  *account.Tracker
	numerator numerator.Generator
	txManager tx.Manager
	auditor   documents.Auditor
}

// ServiceConfig lists the collaborators of the purchase-return orchestrator.
type ServiceConfig struct {
	Repo      Repository
	Purchases PurchaseReader
	Stock     *stock.Service
	Accounts  *account.Tracker
	Numerator numerator.Generator
	TxManager tx.Manager
	Auditor   documents.Auditor
}

// NewService creates a new purchase-return orchestrator.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		purchases: cfg.Purchases,
		stock:     cfg.Stock,
		accounts:  cfg.Accounts,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		auditor:   cfg.Auditor,
	}
}

// ItemInput is one returned line. A zero UnitPrice takes the purchase price.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity
	UnitPrice types.Money
}

// CreateInput is the createPurchaseReturn payload.
type CreateInput struct {
	Number       string
	Date         time.Time
	PurchaseID   id.ID
	AccountID    *id.ID
	RefundAmount types.Money
	Reason       string
	Notes        string
	Items        []ItemInput
}

func (in CreateInput) validate() error {
	if id.IsNil(in.PurchaseID) {
		return apperror.NewRequired("purchaseId")
	}
	if len(in.Items) == 0 {
		return apperror.NewValidation("return must have at least one item").WithDetail("field", "items")
	}
	for i, it := range in.Items {
		if err := documents.ValidateLine(i+1, it.ProductID, it.Quantity, it.UnitPrice); err != nil {
			return err
		}
	}
	return documents.NonNegative("refundAmount", in.RefundAmount)
}

// Create records a purchase return: stock goes down by the entered
// quantities and the refund, when an account is given, is credited to it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PurchaseReturn, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	original, err := s.purchases.GetByID(ctx, in.PurchaseID)
	if err != nil {
		return nil, err
	}

	doc := &PurchaseReturn{
		PurchaseID:   original.ID,
		SupplierID:   original.SupplierID,
		AccountID:    in.AccountID,
		RefundAmount: in.RefundAmount,
		Reason:       in.Reason,
	}
	if err := documents.Prepare(ctx, s.numerator, numerator.PrefixPurchaseReturn, &doc.Document, in.Number, in.Date, in.Notes, appctx.ActorID(ctx)); err != nil {
		return nil, err
	}
	if err := buildItems(doc, original, in.Items); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create purchase return: %w", err)
		}

		for _, it := range doc.Items {
			if _, err := s.stock.ApplyDelta(ctx, it.ProductID, it.Quantity.Neg(), nil); err != nil {
				return err
			}
		}

		if doc.AccountID != nil && doc.RefundAmount.IsPositive() {
			if _, err := s.accounts.Credit(ctx, *doc.AccountID, doc.RefundAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogCreate(ctx, "purchase_return", doc.ID, doc.Number, map[string]any{
		"purchaseId":   doc.PurchaseID.String(),
		"totalAmount":  doc.TotalAmount,
		"refundAmount": doc.RefundAmount,
		"itemCount":    len(doc.Items),
	})

	logger.Info(ctx, "purchase return created",
		"id", doc.ID,
		"number", doc.Number,
		"purchase_id", doc.PurchaseID,
	)

	return doc, nil
}

func buildItems(doc *PurchaseReturn, original *purchase.Purchase, items []ItemInput) error {
	prices := make(map[id.ID]types.Money, len(original.Items))
	for _, it := range original.Items {
		prices[it.ProductID] = it.UnitPrice
	}

	total := types.Zero()
	doc.Items = make([]Item, len(items))
	for i, in := range items {
		bought, ok := prices[in.ProductID]
		if !ok {
			return apperror.NewValidation("product was not part of the purchase").
				WithDetail("line", i+1).
				WithDetail("productId", in.ProductID.String())
		}
		price := in.UnitPrice
		if price.IsZero() {
			price = bought
		}
		amount := documents.LineAmount(in.Quantity, price)
		doc.Items[i] = Item{
			ID:        id.New(),
			ReturnID:  doc.ID,
			LineNo:    i + 1,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: price,
			Amount:    amount,
		}
		total = total.Add(amount)
	}
	doc.TotalAmount = total
	return nil
}

// GetByID returns the return with its items.
func (s *Service) GetByID(ctx context.Context, returnID id.ID) (*PurchaseReturn, error) {
	return s.repo.GetByID(ctx, returnID)
}

// List returns return headers.
func (s *Service) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*PurchaseReturn], error) {
	return s.repo.List(ctx, filter.Normalize())
}
