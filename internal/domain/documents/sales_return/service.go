package sales_return

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
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/documents"
	"pharmaledger/internal/domain/documents/sale"
	"pharmaledger/internal/domain/loyalty"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/pkg/logger"
)

// Service is the sales-return orchestrator.
type Service struct {
	repo      Repository
	sales     SaleStore
	customers customer.Repository
	stock     *stock.Service
	accounts  *account.Tracker
	loyalty   *loyalty.Calculator
	numerator numerator.Generator
	txManager tx.Manager
	auditor   documents.Auditor
}

// ServiceConfig lists the collaborators of the sales-return orchestrator.
type ServiceConfig struct {
	Repo      Repository
	Sales     SaleStore
	Customers customer.Repository
	Stock     *stock.Service
	Accounts  *account.Tracker
	Loyalty   *loyalty.Calculator
	Numerator numerator.Generator
	TxManager tx.Manager
	Auditor   documents.Auditor
}

// NewService creates a new sales-return orchestrator.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		sales:     cfg.Sales,
		customers: cfg.Customers,
		stock:     cfg.Stock,
		accounts:  cfg.Accounts,
		loyalty:   cfg.Loyalty,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		auditor:   cfg.Auditor,
	}
}

// ItemInput is one returned line. A zero UnitPrice takes the price the
// product was sold at.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity
	UnitPrice types.Money
}

// CreateInput is the createSalesReturn payload.
type CreateInput struct {
	Number       string
	Date         time.Time
	SaleID       id.ID
	AccountID    *id.ID
	RefundAmount types.Money
	Reason       string
	Notes        string
	Items        []ItemInput
}

func (in CreateInput) validate() error {
	if id.IsNil(in.SaleID) {
		return apperror.NewRequired("saleId")
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

// Create records a sales return: stock comes back, the refund is debited
// from the account, earned points are taken back, and the sale's status
// advances from the quantities returned across all of its returns.
func (s *Service) Create(ctx context.Context, in CreateInput) (*SalesReturn, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	doc := &SalesReturn{
		SaleID:       in.SaleID,
		AccountID:    in.AccountID,
		RefundAmount: in.RefundAmount,
		Reason:       in.Reason,
	}
	if err := documents.Prepare(ctx, s.numerator, numerator.PrefixSalesReturn, &doc.Document, in.Number, in.Date, in.Notes, appctx.ActorID(ctx)); err != nil {
		return nil, err
	}

	var (
		original  *sale.Sale
		oldStatus sale.Status
		newStatus sale.Status
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		original, err = s.sales.GetForUpdate(ctx, in.SaleID)
		if err != nil {
			return err
		}
		doc.CustomerID = original.CustomerID

		already, err := s.repo.ReturnedQuantities(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("aggregate returns: %w", err)
		}
		if err := s.buildItems(doc, original, already, in.Items); err != nil {
			return err
		}

		if doc.CustomerID != nil {
			c, err := s.customers.GetForUpdate(ctx, *doc.CustomerID)
			if err != nil {
				return err
			}
			res, err := s.loyalty.ApplyReturn(c.LoyaltyPoints, doc.TotalAmount)
			if err != nil {
				return err
			}
			doc.PointsDeducted = res.Deducted
			if err := s.customers.UpdateBalances(ctx, c.ID, res.Final, c.TotalPurchases); err != nil {
				return fmt.Errorf("update customer: %w", err)
			}
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create sales return: %w", err)
		}

		for _, it := range doc.Items {
			if _, err := s.stock.ApplyDelta(ctx, it.ProductID, it.Quantity, nil); err != nil {
				return err
			}
		}

		if doc.AccountID != nil && doc.RefundAmount.IsPositive() {
			if _, err := s.accounts.Debit(ctx, *doc.AccountID, doc.RefundAmount); err != nil {
				return err
			}
		}

		returned, err := s.repo.ReturnedQuantities(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("aggregate returns: %w", err)
		}
		oldStatus = original.Status
		newStatus = sale.NextStatus(oldStatus, original.SoldQuantities(), returned)
		if newStatus != oldStatus {
			if err := s.sales.UpdateStatus(ctx, original.ID, newStatus); err != nil {
				return fmt.Errorf("update sale status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogCreate(ctx, "sales_return", doc.ID, doc.Number, map[string]any{
		"saleId":       doc.SaleID.String(),
		"totalAmount":  doc.TotalAmount,
		"refundAmount": doc.RefundAmount,
		"itemCount":    len(doc.Items),
	})
	s.auditor.LogUpdate(ctx, "sale", original.ID, original.Number,
		map[string]any{"status": oldStatus},
		map[string]any{"status": newStatus},
	)

	logger.Info(ctx, "sales return created",
		"id", doc.ID,
		"number", doc.Number,
		"sale_id", doc.SaleID,
		"sale_status", newStatus,
	)

	return doc, nil
}

// buildItems checks that every returned product was sold in the original
// sale and that no product comes back more than was sold, counting what
// earlier returns already took back. It computes line amounts.
func (s *Service) buildItems(doc *SalesReturn, original *sale.Sale, already map[id.ID]types.Quantity, items []ItemInput) error {
	prices := make(map[id.ID]types.Money, len(original.Items))
	for _, it := range original.Items {
		prices[it.ProductID] = it.UnitPrice
	}
	remaining := original.SoldQuantities()
	for productID, q := range already {
		remaining[productID] -= q
	}

	total := types.Zero()
	doc.Items = make([]Item, len(items))
	for i, in := range items {
		soldPrice, ok := prices[in.ProductID]
		if !ok {
			return apperror.NewValidation("product was not part of the sale").
				WithDetail("line", i+1).
				WithDetail("productId", in.ProductID.String())
		}
		if in.Quantity > remaining[in.ProductID] {
			return apperror.NewValidation("quantity exceeds what is left to return").
				WithDetail("line", i+1).
				WithDetail("productId", in.ProductID.String()).
				WithDetail("remaining", remaining[in.ProductID].ClampZero().String())
		}
		remaining[in.ProductID] -= in.Quantity

		price := in.UnitPrice
		if price.IsZero() {
			price = soldPrice
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
func (s *Service) GetByID(ctx context.Context, returnID id.ID) (*SalesReturn, error) {
	return s.repo.GetByID(ctx, returnID)
}

// List returns return headers.
func (s *Service) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*SalesReturn], error) {
	return s.repo.List(ctx, filter.Normalize())
}
