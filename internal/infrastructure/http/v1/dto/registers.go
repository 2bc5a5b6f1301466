package dto

import (
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/domain/registers/supplier_ledger"
)

// --- Stock ---

// AdjustStockRequest applies a signed delta to a product's stock.
type AdjustStockRequest struct {
	Delta types.Quantity `json:"delta"`
}

// StockListQuery is the stock listing query string.
type StockListQuery struct {
	ProductIDs     []string   `form:"productId"`
	ExcludeZero    bool       `form:"excludeZero"`
	ExpiringBefore *time.Time `form:"expiringBefore" time_format:"2006-01-02"`
	Limit          int        `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset         int        `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query, rejecting malformed product ids.
func (q StockListQuery) ToFilter() (stock.ListFilter, error) {
	f := stock.ListFilter{
		ExcludeZero:    q.ExcludeZero,
		ExpiringBefore: q.ExpiringBefore,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
	for _, raw := range q.ProductIDs {
		pid, err := id.Parse(raw)
		if err != nil {
			return f, err
		}
		f.ProductIDs = append(f.ProductIDs, pid)
	}
	return f, nil
}

// --- Accounts ---

// OpenAccountRequest is the request body for opening a cash or bank account.
type OpenAccountRequest struct {
	Name           string      `json:"name" binding:"required,max=200"`
	Kind           string      `json:"kind" binding:"omitempty,oneof=cash bank"`
	BankName       string      `json:"bankName" binding:"max=200"`
	AccountNumber  string      `json:"accountNumber" binding:"max=64"`
	OpeningBalance types.Money `json:"openingBalance" binding:"money"`
}

// ToInput converts the request. Kind defaults to bank.
func (r OpenAccountRequest) ToInput() account.OpenInput {
	kind := account.KindBank
	if r.Kind != "" {
		kind = account.Kind(r.Kind)
	}
	return account.OpenInput{
		Name:           r.Name,
		Kind:           kind,
		BankName:       r.BankName,
		AccountNumber:  r.AccountNumber,
		OpeningBalance: r.OpeningBalance,
	}
}

// --- Suppliers ---

// RegisterSupplierRequest is the request body for registering a supplier.
type RegisterSupplierRequest struct {
	Code           string      `json:"code" binding:"max=50"`
	Name           string      `json:"name" binding:"required,max=200"`
	ContactPerson  string      `json:"contactPerson" binding:"max=200"`
	Phone          string      `json:"phone" binding:"max=32"`
	Email          string      `json:"email" binding:"omitempty,email"`
	Address        string      `json:"address" binding:"max=500"`
	OpeningBalance types.Money `json:"openingBalance" binding:"money"`
}

// ToInput converts the request.
func (r RegisterSupplierRequest) ToInput() supplier_ledger.RegisterInput {
	return supplier_ledger.RegisterInput{
		Code:           r.Code,
		Name:           r.Name,
		ContactPerson:  r.ContactPerson,
		Phone:          r.Phone,
		Email:          r.Email,
		Address:        r.Address,
		OpeningBalance: r.OpeningBalance,
	}
}

// UpdateSupplierRequest patches a supplier profile. Balances are read-only.
type UpdateSupplierRequest struct {
	Code          *string `json:"code" binding:"omitempty,max=50"`
	Name          *string `json:"name" binding:"omitempty,max=200"`
	ContactPerson *string `json:"contactPerson" binding:"omitempty,max=200"`
	Phone         *string `json:"phone" binding:"omitempty,max=32"`
	Email         *string `json:"email" binding:"omitempty,email"`
	Address       *string `json:"address" binding:"omitempty,max=500"`
}

// ToInput converts the request.
func (r UpdateSupplierRequest) ToInput() supplier_ledger.UpdateInput {
	return supplier_ledger.UpdateInput{
		Code:          r.Code,
		Name:          r.Name,
		ContactPerson: r.ContactPerson,
		Phone:         r.Phone,
		Email:         r.Email,
		Address:       r.Address,
	}
}

// SupplierListQuery is the supplier listing query string.
type SupplierListQuery struct {
	Search          string `form:"search"`
	WithBalanceOnly bool   `form:"withBalanceOnly"`
	Limit           int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset          int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query.
func (q SupplierListQuery) ToFilter() supplier_ledger.ListFilter {
	return supplier_ledger.ListFilter{
		Search:          q.Search,
		WithBalanceOnly: q.WithBalanceOnly,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
}
