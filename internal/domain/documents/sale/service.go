package sale

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
	"pharmaledger/internal/domain/loyalty"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/pkg/logger"
)

// Service is the sale orchestrator.
type Service struct {
	repo      Repository
	products  documents.ProductReader
	customers customer.Repository
	stock     *stock.Service
	accounts  *account.Tracker
	loyalty   *loyalty.Calculator
	numerator numerator.Generator
	txManager tx.Manager
	auditor   documents.Auditor
}

// ServiceConfig lists the collaborators of the sale orchestrator.
type ServiceConfig struct {
	Repo      Repository
	Products  documents.ProductReader
	Customers customer.Repository
	Stock     *stock.Service
	Accounts  *account.Tracker
	Loyalty   *loyalty.Calculator
	Numerator numerator.Generator
	TxManager tx.Manager
	Auditor   documents.Auditor
}

// NewService creates a new sale orchestrator.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		products:  cfg.Products,
		customers: cfg.Customers,
		stock:     cfg.Stock,
		accounts:  cfg.Accounts,
		loyalty:   cfg.Loyalty,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		auditor:   cfg.Auditor,
	}
}

// ItemInput is one requested sale line.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity
	UnitPrice types.Money
}

// CreateInput is the createSale payload.
type CreateInput struct {
	Number         string
	Date           time.Time
	CustomerID     *id.ID
	AccountID      *id.ID
	PaidAmount     types.Money
	Discount       types.Money
	PointsRedeemed int64
	PaymentMethod  string
	Notes          string
	Items          []ItemInput
}

func (in CreateInput) validate() error {
	if len(in.Items) == 0 {
		return apperror.NewValidation("sale must have at least one item").WithDetail("field", "items")
	}
	for i, it := range in.Items {
		if err := documents.ValidateLine(i+1, it.ProductID, it.Quantity, it.UnitPrice); err != nil {
			return err
		}
	}
	if err := documents.NonNegative("paidAmount", in.PaidAmount); err != nil {
		return err
	}
	if err := documents.NonNegative("discount", in.Discount); err != nil {
		return err
	}
	if in.PointsRedeemed < 0 {
		return apperror.NewValidation("pointsRedeemed cannot be negative").WithDetail("field", "pointsRedeemed")
	}
	if in.PointsRedeemed > 0 && in.CustomerID == nil {
		return apperror.NewValidation("redeeming points requires a customer").WithDetail("field", "customerId")
	}
	return nil
}

// Create records a sale: stock goes down, the paid amount is credited to
// the account, and the customer's loyalty and lifetime totals move, all in
// one transaction. A missing product fails before anything is written.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sale, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	productIDs := make([]id.ID, len(in.Items))
	for i, it := range in.Items {
		productIDs[i] = it.ProductID
	}
	if _, err := documents.ResolveProducts(ctx, s.products, productIDs); err != nil {
		return nil, err
	}

	doc := &Sale{
		CustomerID:     in.CustomerID,
		AccountID:      in.AccountID,
		Discount:       in.Discount,
		PointsRedeemed: in.PointsRedeemed,
		PaidAmount:     in.PaidAmount,
		PaymentMethod:  in.PaymentMethod,
		Status:         StatusCompleted,
	}
	if err := documents.Prepare(ctx, s.numerator, numerator.PrefixSale, &doc.Document, in.Number, in.Date, in.Notes, appctx.ActorID(ctx)); err != nil {
		return nil, err
	}

	subtotal := types.Zero()
	doc.Items = make([]Item, len(in.Items))
	for i, it := range in.Items {
		amount := documents.LineAmount(it.Quantity, it.UnitPrice)
		doc.Items[i] = Item{
			ID:        id.New(),
			SaleID:    doc.ID,
			LineNo:    i + 1,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Amount:    amount,
		}
		subtotal = subtotal.Add(amount)
	}
	doc.Subtotal = subtotal
	doc.TotalAmount = types.FloorZero(
		subtotal.Sub(in.Discount).Sub(loyalty.RedemptionValue(in.PointsRedeemed)),
	)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var cust *customer.Customer
		if doc.CustomerID != nil {
			c, err := s.customers.GetForUpdate(ctx, *doc.CustomerID)
			if err != nil {
				return err
			}
			if doc.PointsRedeemed > c.LoyaltyPoints {
				return apperror.NewValidation("customer does not have enough loyalty points").
					WithDetail("available", c.LoyaltyPoints).
					WithDetail("requested", doc.PointsRedeemed)
			}
			res, err := s.loyalty.ApplySale(c.LoyaltyPoints, doc.PointsRedeemed, doc.TotalAmount)
			if err != nil {
				return err
			}
			doc.PointsEarned = res.Earned
			c.LoyaltyPoints = res.Final
			c.TotalPurchases = c.TotalPurchases.Add(doc.TotalAmount)
			cust = c
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		for _, it := range doc.Items {
			if _, err := s.stock.ApplyDelta(ctx, it.ProductID, it.Quantity.Neg(), nil); err != nil {
				return err
			}
		}

		if doc.AccountID != nil && doc.PaidAmount.IsPositive() {
			if _, err := s.accounts.Credit(ctx, *doc.AccountID, doc.PaidAmount); err != nil {
				return err
			}
		}

		if cust != nil {
			if err := s.customers.UpdateBalances(ctx, cust.ID, cust.LoyaltyPoints, cust.TotalPurchases); err != nil {
				return fmt.Errorf("update customer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogCreate(ctx, "sale", doc.ID, doc.Number, map[string]any{
		"totalAmount": doc.TotalAmount,
		"itemCount":   len(doc.Items),
	})

	logger.Info(ctx, "sale created",
		"id", doc.ID,
		"number", doc.Number,
		"total", doc.TotalAmount,
		"points_earned", doc.PointsEarned,
	)

	return doc, nil
}

// GetByID returns the sale with its items.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, saleID)
}

// List returns sale headers.
func (s *Service) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Sale], error) {
	return s.repo.List(ctx, filter.Normalize())
}
