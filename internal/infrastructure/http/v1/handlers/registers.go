package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// StockHandler exposes the inventory register.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// List handles GET /stock.
func (h *StockHandler) List(c *gin.Context) {
	var q dto.StockListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId").WithDetail("error", err.Error()))
		return
	}

	records, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	if records == nil {
		records = []stock.Record{}
	}
	h.OK(c, dto.ItemsResponse{Items: records})
}

// Get handles GET /stock/:productId.
func (h *StockHandler) Get(c *gin.Context) {
	productID, ok := h.PathID(c, "productId")
	if !ok {
		return
	}

	rec, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// Adjust handles POST /stock/:productId/adjust.
func (h *StockHandler) Adjust(c *gin.Context) {
	productID, ok := h.PathID(c, "productId")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.UpdateQuantity(c.Request.Context(), productID, req.Delta)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// AccountHandler exposes cash and bank accounts.
type AccountHandler struct {
	*BaseHandler
	tracker *account.Tracker
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(base *BaseHandler, tracker *account.Tracker) *AccountHandler {
	return &AccountHandler{BaseHandler: base, tracker: tracker}
}

// List handles GET /accounts.
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.tracker.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if accounts == nil {
		accounts = []account.BankAccount{}
	}
	h.OK(c, dto.ItemsResponse{Items: accounts})
}

// Get handles GET /accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	acc, err := h.tracker.Get(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, acc)
}

// Open handles POST /accounts.
func (h *AccountHandler) Open(c *gin.Context) {
	var req dto.OpenAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	acc, err := h.tracker.Open(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, acc)
}

// SupplierHandler exposes suppliers and their payable ledger.
type SupplierHandler struct {
	*BaseHandler
	ledger *supplier_ledger.Engine
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, ledger *supplier_ledger.Engine) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, ledger: ledger}
}

// List handles GET /suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	var q dto.SupplierListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	suppliers, err := h.ledger.ListSuppliers(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	if suppliers == nil {
		suppliers = []supplier_ledger.Supplier{}
	}
	h.OK(c, dto.ItemsResponse{Items: suppliers})
}

// Get handles GET /suppliers/:id.
func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	s, err := h.ledger.GetSupplier(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Register handles POST /suppliers.
func (h *SupplierHandler) Register(c *gin.Context) {
	var req dto.RegisterSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	s, err := h.ledger.RegisterSupplier(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s)
}

// Update handles PUT /suppliers/:id.
func (h *SupplierHandler) Update(c *gin.Context) {
	supplierID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	s, err := h.ledger.UpdateSupplier(c.Request.Context(), supplierID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Statement handles GET /suppliers/:id/statement.
func (h *SupplierHandler) Statement(c *gin.Context) {
	supplierID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	st, err := h.ledger.Statement(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, st)
}
