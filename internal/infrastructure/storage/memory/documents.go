package memory

import (
	"context"
	"slices"
	"sort"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
	"pharmaledger/internal/domain/documents/damaged_item"
	"pharmaledger/internal/domain/documents/purchase"
	"pharmaledger/internal/domain/documents/purchase_return"
	"pharmaledger/internal/domain/documents/sale"
	"pharmaledger/internal/domain/documents/salary_payment"
	"pharmaledger/internal/domain/documents/sales_return"
	"pharmaledger/internal/domain/documents/supplier_payment"
)

// DocumentRepo stores one document type. Documents are immutable, so it
// only inserts, reads and lists.
type DocumentRepo[T any] struct {
	store  *Store
	entity string
	table  func(*state) map[id.ID]T
	header func(*T) *entity.Document
	// clone copies the item slice; withoutItems drops it for listings.
	clone        func(T) T
	withoutItems func(T) T
}

func (r *DocumentRepo[T]) Create(ctx context.Context, doc *T) error {
	return r.store.write(func(st *state) error {
		return r.insert(st, doc)
	})
}

func (r *DocumentRepo[T]) insert(st *state, doc *T) error {
	rows := r.table(st)
	h := r.header(doc)
	if _, ok := rows[h.ID]; ok {
		return apperror.NewDuplicate(r.entity, "id", h.ID.String())
	}
	if h.Number != "" {
		for _, row := range rows {
			if r.header(&row).Number == h.Number {
				return apperror.NewDuplicate(r.entity, "number", h.Number)
			}
		}
	}
	rows[h.ID] = r.copy(*doc)
	return nil
}

func (r *DocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (*T, error) {
	var (
		row T
		ok  bool
	)
	r.store.read(func(st *state) {
		row, ok = r.table(st)[docID]
	})
	if !ok {
		return nil, apperror.NewNotFound(r.entity, docID.String())
	}
	out := r.copy(row)
	return &out, nil
}

// GetForUpdate returns the document; transactions are already serialized.
func (r *DocumentRepo[T]) GetForUpdate(ctx context.Context, docID id.ID) (*T, error) {
	return r.GetByID(ctx, docID)
}

// List returns headers newest first.
func (r *DocumentRepo[T]) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*T], error) {
	filter = filter.Normalize()

	var items []*T
	r.store.read(func(st *state) {
		for _, row := range r.table(st) {
			if !filter.Matches(r.header(&row).Date) {
				continue
			}
			if r.withoutItems != nil {
				row = r.withoutItems(row)
			}
			items = append(items, &row)
		}
	})
	sort.Slice(items, func(i, j int) bool {
		a, b := r.header(items[i]), r.header(items[j])
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID.String() > b.ID.String()
	})

	return domain.ListResult[*T]{
		Items:      page(items, filter.Limit, filter.Offset),
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *DocumentRepo[T]) copy(doc T) T {
	if r.clone == nil {
		return doc
	}
	return r.clone(doc)
}

// --- Sales ---

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	*DocumentRepo[sale.Sale]
}

// Sales returns the sale repository.
func (s *Store) Sales() *SaleRepo {
	return &SaleRepo{&DocumentRepo[sale.Sale]{
		store:  s,
		entity: "sale",
		table:  func(st *state) map[id.ID]sale.Sale { return st.sales },
		header: func(d *sale.Sale) *entity.Document { return &d.Document },
		clone: func(d sale.Sale) sale.Sale {
			d.Items = slices.Clone(d.Items)
			return d
		},
		withoutItems: func(d sale.Sale) sale.Sale {
			d.Items = nil
			return d
		},
	}}
}

func (r *SaleRepo) UpdateStatus(ctx context.Context, saleID id.ID, status sale.Status) error {
	return r.store.write(func(st *state) error {
		row, ok := st.sales[saleID]
		if !ok {
			return apperror.NewNotFound("sale", saleID.String())
		}
		row.Status = status
		st.sales[saleID] = row
		return nil
	})
}

// --- Sales returns ---

// SalesReturnRepo implements sales_return.Repository.
type SalesReturnRepo struct {
	*DocumentRepo[sales_return.SalesReturn]
}

// SalesReturns returns the sales-return repository.
func (s *Store) SalesReturns() *SalesReturnRepo {
	return &SalesReturnRepo{&DocumentRepo[sales_return.SalesReturn]{
		store:  s,
		entity: "sales_return",
		table:  func(st *state) map[id.ID]sales_return.SalesReturn { return st.salesReturns },
		header: func(d *sales_return.SalesReturn) *entity.Document { return &d.Document },
		clone: func(d sales_return.SalesReturn) sales_return.SalesReturn {
			d.Items = slices.Clone(d.Items)
			return d
		},
		withoutItems: func(d sales_return.SalesReturn) sales_return.SalesReturn {
			d.Items = nil
			return d
		},
	}}
}

func (r *SalesReturnRepo) ReturnedQuantities(ctx context.Context, saleID id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity)
	r.store.read(func(st *state) {
		for _, ret := range st.salesReturns {
			if ret.SaleID != saleID {
				continue
			}
			for _, it := range ret.Items {
				out[it.ProductID] += it.Quantity
			}
		}
	})
	return out, nil
}

// --- Purchases ---

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	*DocumentRepo[purchase.Purchase]
}

// Purchases returns the purchase repository.
func (s *Store) Purchases() *PurchaseRepo {
	return &PurchaseRepo{&DocumentRepo[purchase.Purchase]{
		store:  s,
		entity: "purchase",
		table:  func(st *state) map[id.ID]purchase.Purchase { return st.purchases },
		header: func(d *purchase.Purchase) *entity.Document { return &d.Document },
		clone: func(d purchase.Purchase) purchase.Purchase {
			d.Items = slices.Clone(d.Items)
			return d
		},
		withoutItems: func(d purchase.Purchase) purchase.Purchase {
			d.Items = nil
			return d
		},
	}}
}

// Create rejects a second purchase with the same supplier invoice number.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	return r.store.write(func(st *state) error {
		for _, row := range st.purchases {
			if row.SupplierID == p.SupplierID && row.InvoiceNumber == p.InvoiceNumber {
				return apperror.NewDuplicate("purchase", "invoice_number", p.InvoiceNumber)
			}
		}
		return r.insert(st, p)
	})
}

func (r *PurchaseRepo) Delete(ctx context.Context, purchaseID id.ID) error {
	return r.store.write(func(st *state) error {
		if _, ok := st.purchases[purchaseID]; !ok {
			return apperror.NewNotFound("purchase", purchaseID.String())
		}
		delete(st.purchases, purchaseID)
		return nil
	})
}

// --- Purchase returns ---

// PurchaseReturnRepo implements purchase_return.Repository.
type PurchaseReturnRepo struct {
	*DocumentRepo[purchase_return.PurchaseReturn]
}

// PurchaseReturns returns the purchase-return repository.
func (s *Store) PurchaseReturns() *PurchaseReturnRepo {
	return &PurchaseReturnRepo{&DocumentRepo[purchase_return.PurchaseReturn]{
		store:  s,
		entity: "purchase_return",
		table:  func(st *state) map[id.ID]purchase_return.PurchaseReturn { return st.purchaseReturns },
		header: func(d *purchase_return.PurchaseReturn) *entity.Document { return &d.Document },
		clone: func(d purchase_return.PurchaseReturn) purchase_return.PurchaseReturn {
			d.Items = slices.Clone(d.Items)
			return d
		},
		withoutItems: func(d purchase_return.PurchaseReturn) purchase_return.PurchaseReturn {
			d.Items = nil
			return d
		},
	}}
}

func (r *PurchaseReturnRepo) CountByPurchase(ctx context.Context, purchaseID id.ID) (int, error) {
	var n int
	r.store.read(func(st *state) {
		for _, ret := range st.purchaseReturns {
			if ret.PurchaseID == purchaseID {
				n++
			}
		}
	})
	return n, nil
}

// --- Payments and write-offs ---

// SupplierPayments returns the supplier-payment repository.
func (s *Store) SupplierPayments() *DocumentRepo[supplier_payment.SupplierPayment] {
	return &DocumentRepo[supplier_payment.SupplierPayment]{
		store:  s,
		entity: "supplier_payment",
		table:  func(st *state) map[id.ID]supplier_payment.SupplierPayment { return st.supplierPayments },
		header: func(d *supplier_payment.SupplierPayment) *entity.Document { return &d.Document },
	}
}

// DamagedItems returns the write-off repository.
func (s *Store) DamagedItems() *DocumentRepo[damaged_item.DamagedItem] {
	return &DocumentRepo[damaged_item.DamagedItem]{
		store:  s,
		entity: "damaged_item",
		table:  func(st *state) map[id.ID]damaged_item.DamagedItem { return st.damagedItems },
		header: func(d *damaged_item.DamagedItem) *entity.Document { return &d.Document },
	}
}

// SalaryPayments returns the salary-payment repository.
func (s *Store) SalaryPayments() *DocumentRepo[salary_payment.SalaryPayment] {
	return &DocumentRepo[salary_payment.SalaryPayment]{
		store:  s,
		entity: "salary_payment",
		table:  func(st *state) map[id.ID]salary_payment.SalaryPayment { return st.salaryPayments },
		header: func(d *salary_payment.SalaryPayment) *entity.Document { return &d.Document },
	}
}

var (
	_ sale.Repository                = (*SaleRepo)(nil)
	_ sales_return.Repository        = (*SalesReturnRepo)(nil)
	_ sales_return.SaleStore         = (*SaleRepo)(nil)
	_ purchase.Repository            = (*PurchaseRepo)(nil)
	_ purchase.ReturnCounter         = (*PurchaseReturnRepo)(nil)
	_ purchase_return.Repository     = (*PurchaseReturnRepo)(nil)
	_ purchase_return.PurchaseReader = (*PurchaseRepo)(nil)
	_ supplier_payment.Repository    = (*DocumentRepo[supplier_payment.SupplierPayment])(nil)
	_ damaged_item.Repository        = (*DocumentRepo[damaged_item.DamagedItem])(nil)
	_ salary_payment.Repository      = (*DocumentRepo[salary_payment.SalaryPayment])(nil)
)
