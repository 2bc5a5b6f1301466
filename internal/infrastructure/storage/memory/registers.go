package memory

import (
	"context"
	"slices"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/domain/registers/supplier_ledger"
)

// --- Inventory ---

// StockRepo implements stock.Repository.
type StockRepo struct{ store *Store }

// Stock returns the inventory repository.
func (s *Store) Stock() *StockRepo { return &StockRepo{store: s} }

func (r *StockRepo) Get(ctx context.Context, productID id.ID) (*stock.Record, bool, error) {
	var (
		rec stock.Record
		ok  bool
	)
	r.store.read(func(st *state) {
		rec, ok = st.stock[productID]
	})
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (r *StockRepo) GetForUpdate(ctx context.Context, productID id.ID) (*stock.Record, bool, error) {
	return r.Get(ctx, productID)
}

func (r *StockRepo) Upsert(ctx context.Context, rec *stock.Record) error {
	return r.store.write(func(st *state) error {
		st.stock[rec.ProductID] = *rec
		return nil
	})
}

func (r *StockRepo) List(ctx context.Context, filter stock.ListFilter) ([]stock.Record, error) {
	var out []stock.Record
	r.store.read(func(st *state) {
		for _, rec := range st.stock {
			if len(filter.ProductIDs) > 0 && !slices.Contains(filter.ProductIDs, rec.ProductID) {
				continue
			}
			if filter.ExcludeZero && rec.Quantity == 0 {
				continue
			}
			if filter.ExpiringBefore != nil && (rec.ExpiryDate == nil || !rec.ExpiryDate.Before(*filter.ExpiringBefore)) {
				continue
			}
			out = append(out, rec)
		}
	})
	sortByID(out, func(rec stock.Record) id.ID { return rec.ProductID })
	return page(out, filter.Limit, filter.Offset), nil
}

// Exists implements stock.ProductChecker.
func (r *StockRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	return r.store.Products().Exists(ctx, productID)
}

// --- Accounts ---

// AccountRepo implements account.Repository.
type AccountRepo struct{ store *Store }

// Accounts returns the bank account repository.
func (s *Store) Accounts() *AccountRepo { return &AccountRepo{store: s} }

func (r *AccountRepo) Create(ctx context.Context, acc *account.BankAccount) error {
	return r.store.write(func(st *state) error {
		if _, ok := st.accounts[acc.ID]; ok {
			return apperror.NewDuplicate("bank_account", "id", acc.ID.String())
		}
		st.accounts[acc.ID] = *acc
		return nil
	})
}

func (r *AccountRepo) Get(ctx context.Context, accountID id.ID) (*account.BankAccount, error) {
	var (
		acc account.BankAccount
		ok  bool
	)
	r.store.read(func(st *state) {
		acc, ok = st.accounts[accountID]
	})
	if !ok {
		return nil, apperror.NewNotFound("bank_account", accountID.String())
	}
	return &acc, nil
}

func (r *AccountRepo) GetForUpdate(ctx context.Context, accountID id.ID) (*account.BankAccount, error) {
	return r.Get(ctx, accountID)
}

func (r *AccountRepo) UpdateBalances(ctx context.Context, acc *account.BankAccount) error {
	return r.store.write(func(st *state) error {
		row, ok := st.accounts[acc.ID]
		if !ok {
			return apperror.NewNotFound("bank_account", acc.ID.String())
		}
		row.CurrentBalance = acc.CurrentBalance
		row.TotalDeposits = acc.TotalDeposits
		row.TotalWithdrawals = acc.TotalWithdrawals
		row.Touch()
		st.accounts[acc.ID] = row
		return nil
	})
}

func (r *AccountRepo) List(ctx context.Context) ([]account.BankAccount, error) {
	var out []account.BankAccount
	r.store.read(func(st *state) {
		for _, acc := range st.accounts {
			out = append(out, acc)
		}
	})
	sortByID(out, func(acc account.BankAccount) id.ID { return acc.ID })
	return out, nil
}

// --- Supplier ledger ---

// SupplierRepo implements supplier_ledger.Repository.
type SupplierRepo struct{ store *Store }

// Suppliers returns the supplier and ledger repository.
func (s *Store) Suppliers() *SupplierRepo { return &SupplierRepo{store: s} }

func (r *SupplierRepo) CreateSupplier(ctx context.Context, sup *supplier_ledger.Supplier) error {
	return r.store.write(func(st *state) error {
		if _, ok := st.suppliers[sup.ID]; ok {
			return apperror.NewDuplicate("supplier", "id", sup.ID.String())
		}
		if sup.Code != "" {
			for _, other := range st.suppliers {
				if other.Code == sup.Code {
					return apperror.NewDuplicate("supplier", "code", sup.Code)
				}
			}
		}
		st.suppliers[sup.ID] = *sup
		return nil
	})
}

func (r *SupplierRepo) GetSupplier(ctx context.Context, supplierID id.ID) (*supplier_ledger.Supplier, error) {
	var (
		sup supplier_ledger.Supplier
		ok  bool
	)
	r.store.read(func(st *state) {
		sup, ok = st.suppliers[supplierID]
	})
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID.String())
	}
	return &sup, nil
}

func (r *SupplierRepo) GetSupplierForUpdate(ctx context.Context, supplierID id.ID) (*supplier_ledger.Supplier, error) {
	return r.GetSupplier(ctx, supplierID)
}

func (r *SupplierRepo) UpdateBalances(ctx context.Context, sup *supplier_ledger.Supplier) error {
	return r.store.write(func(st *state) error {
		row, ok := st.suppliers[sup.ID]
		if !ok {
			return apperror.NewNotFound("supplier", sup.ID.String())
		}
		row.CurrentBalance = sup.CurrentBalance
		row.TotalPurchases = sup.TotalPurchases
		row.TotalPayments = sup.TotalPayments
		row.Touch()
		st.suppliers[sup.ID] = row
		return nil
	})
}

func (r *SupplierRepo) UpdateProfile(ctx context.Context, sup *supplier_ledger.Supplier) error {
	return r.store.write(func(st *state) error {
		row, ok := st.suppliers[sup.ID]
		if !ok {
			return apperror.NewNotFound("supplier", sup.ID.String())
		}
		if sup.Code != "" {
			for otherID, other := range st.suppliers {
				if otherID != sup.ID && other.Code == sup.Code {
					return apperror.NewDuplicate("supplier", "code", sup.Code)
				}
			}
		}
		row.Code = sup.Code
		row.Name = sup.Name
		row.ContactPerson = sup.ContactPerson
		row.Phone = sup.Phone
		row.Email = sup.Email
		row.Address = sup.Address
		row.UpdatedAt = sup.UpdatedAt
		st.suppliers[sup.ID] = row
		return nil
	})
}

func (r *SupplierRepo) ListSuppliers(ctx context.Context, filter supplier_ledger.ListFilter) ([]supplier_ledger.Supplier, error) {
	var out []supplier_ledger.Supplier
	r.store.read(func(st *state) {
		for _, sup := range st.suppliers {
			if !matchesSearch(filter.Search, sup.Code, sup.Name, sup.ContactPerson) {
				continue
			}
			if filter.WithBalanceOnly && sup.Payable().IsZero() {
				continue
			}
			out = append(out, sup)
		}
	})
	sortByID(out, func(sup supplier_ledger.Supplier) id.ID { return sup.ID })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *SupplierRepo) AppendEntry(ctx context.Context, e *supplier_ledger.Entry) error {
	return r.store.write(func(st *state) error {
		if _, ok := st.suppliers[e.SupplierID]; !ok {
			return apperror.NewNotFound("supplier", e.SupplierID.String())
		}
		st.entries = append(st.entries, *e)
		return nil
	})
}

func (r *SupplierRepo) DeleteEntriesByReference(ctx context.Context, supplierID, referenceID id.ID) (int64, error) {
	var deleted int64
	err := r.store.write(func(st *state) error {
		kept := st.entries[:0:0]
		for _, e := range st.entries {
			if e.SupplierID == supplierID && e.ReferenceID != nil && *e.ReferenceID == referenceID {
				deleted++
				continue
			}
			kept = append(kept, e)
		}
		st.entries = kept
		return nil
	})
	return deleted, err
}

func (r *SupplierRepo) ListEntries(ctx context.Context, supplierID id.ID) ([]supplier_ledger.Entry, error) {
	var out []supplier_ledger.Entry
	r.store.read(func(st *state) {
		for _, e := range st.entries {
			if e.SupplierID == supplierID {
				out = append(out, e)
			}
		}
	})
	return out, nil
}

var (
	_ stock.Repository           = (*StockRepo)(nil)
	_ stock.ProductChecker       = (*StockRepo)(nil)
	_ account.Repository         = (*AccountRepo)(nil)
	_ supplier_ledger.Repository = (*SupplierRepo)(nil)
)
