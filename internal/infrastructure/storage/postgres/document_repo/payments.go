package document_repo

import (
	"context"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/documents/damaged_item"
	"pharmaledger/internal/domain/documents/salary_payment"
	"pharmaledger/internal/domain/documents/supplier_payment"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// headerRepo serves single-row documents.
type headerRepo[T interface{ GetNumber() string }] struct {
	*BaseDocumentRepo[T]
}

func (r headerRepo[T]) Create(ctx context.Context, doc T) error {
	return r.CreateHeader(ctx, doc, "number", doc.GetNumber())
}

func (r headerRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.GetHeader(ctx, docID)
}

// SupplierPaymentRepo implements supplier_payment.Repository.
type SupplierPaymentRepo struct {
	headerRepo[*supplier_payment.SupplierPayment]
}

// NewSupplierPaymentRepo creates a new supplier payment repository.
func NewSupplierPaymentRepo(txManager *postgres.TxManager) *SupplierPaymentRepo {
	return &SupplierPaymentRepo{headerRepo[*supplier_payment.SupplierPayment]{
		NewBaseDocumentRepo(txManager, "doc_supplier_payments", "supplier_payment",
			func() *supplier_payment.SupplierPayment { return &supplier_payment.SupplierPayment{} }),
	}}
}

// DamagedItemRepo implements damaged_item.Repository.
type DamagedItemRepo struct {
	headerRepo[*damaged_item.DamagedItem]
}

// NewDamagedItemRepo creates a new damaged item repository.
func NewDamagedItemRepo(txManager *postgres.TxManager) *DamagedItemRepo {
	return &DamagedItemRepo{headerRepo[*damaged_item.DamagedItem]{
		NewBaseDocumentRepo(txManager, "doc_damaged_items", "damaged_item",
			func() *damaged_item.DamagedItem { return &damaged_item.DamagedItem{} }),
	}}
}

// SalaryPaymentRepo implements salary_payment.Repository.
type SalaryPaymentRepo struct {
	headerRepo[*salary_payment.SalaryPayment]
}

// NewSalaryPaymentRepo creates a new salary payment repository.
func NewSalaryPaymentRepo(txManager *postgres.TxManager) *SalaryPaymentRepo {
	return &SalaryPaymentRepo{headerRepo[*salary_payment.SalaryPayment]{
		NewBaseDocumentRepo(txManager, "doc_salary_payments", "salary_payment",
			func() *salary_payment.SalaryPayment { return &salary_payment.SalaryPayment{} }),
	}}
}

var (
	_ supplier_payment.Repository = (*SupplierPaymentRepo)(nil)
	_ damaged_item.Repository     = (*DamagedItemRepo)(nil)
	_ salary_payment.Repository   = (*SalaryPaymentRepo)(nil)
)
