package dto

import (
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/documents/damaged_item"
	"pharmaledger/internal/domain/documents/purchase"
	"pharmaledger/internal/domain/documents/purchase_return"
	"pharmaledger/internal/domain/documents/salary_payment"
	"pharmaledger/internal/domain/documents/sale"
	"pharmaledger/internal/domain/documents/sales_return"
	"pharmaledger/internal/domain/documents/supplier_payment"
)

// DocumentHeader holds the fields shared by every document request.
// An empty number is generated; a missing date means now.
type DocumentHeader struct {
	Number string     `json:"number" binding:"max=50"`
	Date   *time.Time `json:"date"`
	Notes  string     `json:"notes" binding:"max=1000"`
}

func (h DocumentHeader) date() time.Time {
	if h.Date == nil {
		return time.Time{}
	}
	return *h.Date
}

// LineRequest is one product line of a sale or return.
type LineRequest struct {
	ProductID id.ID          `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity"`
	UnitPrice types.Money    `json:"unitPrice" binding:"money"`
}

// --- Sale ---

// CreateSaleRequest is the request body for recording a sale.
type CreateSaleRequest struct {
	DocumentHeader
	CustomerID     *id.ID        `json:"customerId"`
	AccountID      *id.ID        `json:"accountId"`
	PaidAmount     types.Money   `json:"paidAmount" binding:"money"`
	Discount       types.Money   `json:"discount" binding:"money"`
	PointsRedeemed int64         `json:"pointsRedeemed" binding:"min=0"`
	PaymentMethod  string        `json:"paymentMethod" binding:"max=32"`
	Items          []LineRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput converts the request.
func (r CreateSaleRequest) ToInput() sale.CreateInput {
	items := make([]sale.ItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = sale.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return sale.CreateInput{
		Number:         r.Number,
		Date:           r.date(),
		CustomerID:     r.CustomerID,
		AccountID:      r.AccountID,
		PaidAmount:     r.PaidAmount,
		Discount:       r.Discount,
		PointsRedeemed: r.PointsRedeemed,
		PaymentMethod:  r.PaymentMethod,
		Notes:          r.Notes,
		Items:          items,
	}
}

// CreateSalesReturnRequest is the request body for returning sold goods.
// A zero unit price takes the price from the sale.
type CreateSalesReturnRequest struct {
	DocumentHeader
	SaleID       id.ID         `json:"saleId" binding:"required"`
	AccountID    *id.ID        `json:"accountId"`
	RefundAmount types.Money   `json:"refundAmount" binding:"money"`
	Reason       string        `json:"reason" binding:"max=500"`
	Items        []LineRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput converts the request.
func (r CreateSalesReturnRequest) ToInput() sales_return.CreateInput {
	items := make([]sales_return.ItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = sales_return.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return sales_return.CreateInput{
		Number:       r.Number,
		Date:         r.date(),
		SaleID:       r.SaleID,
		AccountID:    r.AccountID,
		RefundAmount: r.RefundAmount,
		Reason:       r.Reason,
		Notes:        r.Notes,
		Items:        items,
	}
}

// --- Purchase ---

// PurchaseLineRequest is one purchased line; quantity is in packages.
type PurchaseLineRequest struct {
	LineRequest
	BatchNumber     string     `json:"batchNumber" binding:"max=64"`
	ExpiryDate      *time.Time `json:"expiryDate"`
	ManufactureDate *time.Time `json:"manufactureDate"`
}

// CreatePurchaseRequest is the request body for recording a purchase.
// An empty invoice number falls back to the document number.
type CreatePurchaseRequest struct {
	DocumentHeader
	SupplierID    id.ID                 `json:"supplierId" binding:"required"`
	AccountID     *id.ID                `json:"accountId"`
	InvoiceNumber string                `json:"invoiceNumber" binding:"max=64"`
	PaidAmount    types.Money           `json:"paidAmount" binding:"money"`
	Items         []PurchaseLineRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput converts the request.
func (r CreatePurchaseRequest) ToInput() purchase.CreateInput {
	items := make([]purchase.ItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = purchase.ItemInput{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			BatchNumber:     it.BatchNumber,
			ExpiryDate:      it.ExpiryDate,
			ManufactureDate: it.ManufactureDate,
		}
	}
	return purchase.CreateInput{
		Number:        r.Number,
		Date:          r.date(),
		SupplierID:    r.SupplierID,
		AccountID:     r.AccountID,
		InvoiceNumber: r.InvoiceNumber,
		PaidAmount:    r.PaidAmount,
		Notes:         r.Notes,
		Items:         items,
	}
}

// CreatePurchaseReturnRequest is the request body for returning goods to a supplier.
type CreatePurchaseReturnRequest struct {
	DocumentHeader
	PurchaseID   id.ID         `json:"purchaseId" binding:"required"`
	AccountID    *id.ID        `json:"accountId"`
	RefundAmount types.Money   `json:"refundAmount" binding:"money"`
	Reason       string        `json:"reason" binding:"max=500"`
	Items        []LineRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput converts the request.
func (r CreatePurchaseReturnRequest) ToInput() purchase_return.CreateInput {
	items := make([]purchase_return.ItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = purchase_return.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return purchase_return.CreateInput{
		Number:       r.Number,
		Date:         r.date(),
		PurchaseID:   r.PurchaseID,
		AccountID:    r.AccountID,
		RefundAmount: r.RefundAmount,
		Reason:       r.Reason,
		Notes:        r.Notes,
		Items:        items,
	}
}

// --- Payments and write-offs ---

// CreateSupplierPaymentRequest is the request body for paying a supplier.
type CreateSupplierPaymentRequest struct {
	DocumentHeader
	SupplierID    id.ID       `json:"supplierId" binding:"required"`
	AccountID     id.ID       `json:"accountId" binding:"required"`
	Amount        types.Money `json:"amount" binding:"money"`
	PaymentMethod string      `json:"paymentMethod" binding:"max=32"`
	Reference     string      `json:"reference" binding:"max=100"`
}

// ToInput converts the request.
func (r CreateSupplierPaymentRequest) ToInput() supplier_payment.CreateInput {
	return supplier_payment.CreateInput{
		Number:        r.Number,
		Date:          r.date(),
		SupplierID:    r.SupplierID,
		AccountID:     r.AccountID,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Reference:     r.Reference,
		Notes:         r.Notes,
	}
}

// CreateDamagedItemRequest is the request body for writing off damaged stock.
type CreateDamagedItemRequest struct {
	DocumentHeader
	ProductID   id.ID          `json:"productId" binding:"required"`
	Quantity    types.Quantity `json:"quantity"`
	Reason      string         `json:"reason" binding:"max=500"`
	BatchNumber string         `json:"batchNumber" binding:"max=64"`
}

// ToInput converts the request.
func (r CreateDamagedItemRequest) ToInput() damaged_item.CreateInput {
	return damaged_item.CreateInput{
		Number:      r.Number,
		Date:        r.date(),
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		Reason:      r.Reason,
		BatchNumber: r.BatchNumber,
		Notes:       r.Notes,
	}
}

// CreateSalaryPaymentRequest is the request body for paying an employee.
type CreateSalaryPaymentRequest struct {
	DocumentHeader
	EmployeeID    id.ID       `json:"employeeId" binding:"required"`
	AccountID     id.ID       `json:"accountId" binding:"required"`
	Amount        types.Money `json:"amount" binding:"money"`
	Period        string      `json:"period" binding:"max=32"`
	PaymentMethod string      `json:"paymentMethod" binding:"max=32"`
}

// ToInput converts the request.
func (r CreateSalaryPaymentRequest) ToInput() salary_payment.CreateInput {
	return salary_payment.CreateInput{
		Number:        r.Number,
		Date:          r.date(),
		EmployeeID:    r.EmployeeID,
		AccountID:     r.AccountID,
		Amount:        r.Amount,
		Period:        r.Period,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
	}
}
