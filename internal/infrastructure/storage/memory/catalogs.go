package memory

import (
	"context"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/catalogs/employee"
	"pharmaledger/internal/domain/catalogs/product"
)

// catalogPtr is the pointer form of a catalog entity stored by value.
type catalogPtr[T any] interface {
	*T
	domain.CatalogEntity
}

// CatalogRepo implements domain.CatalogRepository over one table.
type CatalogRepo[T any, P catalogPtr[T]] struct {
	store  *Store
	entity string
	table  func(*state) map[id.ID]T
	base   func(P) *entity.Catalog
}

func (r *CatalogRepo[T, P]) Create(ctx context.Context, e P) error {
	return r.store.write(func(st *state) error {
		rows := r.table(st)
		key := e.GetID()
		if _, ok := rows[key]; ok {
			return apperror.NewDuplicate(r.entity, "id", key.String())
		}
		if code := r.base(e).Code; code != "" {
			for _, row := range rows {
				if r.base(P(&row)).Code == code {
					return apperror.NewDuplicate(r.entity, "code", code)
				}
			}
		}
		rows[key] = *e
		return nil
	})
}

func (r *CatalogRepo[T, P]) GetByID(ctx context.Context, entityID id.ID) (P, error) {
	var (
		out P
		ok  bool
	)
	r.store.read(func(st *state) {
		var row T
		row, ok = r.table(st)[entityID]
		if ok {
			out = P(&row)
		}
	})
	if !ok {
		return nil, apperror.NewNotFound(r.entity, entityID.String())
	}
	return out, nil
}

func (r *CatalogRepo[T, P]) Update(ctx context.Context, e P) error {
	return r.store.write(func(st *state) error {
		rows := r.table(st)
		key := e.GetID()
		if _, ok := rows[key]; !ok {
			return apperror.NewNotFound(r.entity, key.String())
		}
		if code := r.base(e).Code; code != "" {
			for otherID, row := range rows {
				if otherID != key && r.base(P(&row)).Code == code {
					return apperror.NewDuplicate(r.entity, "code", code)
				}
			}
		}
		rows[key] = *e
		return nil
	})
}

func (r *CatalogRepo[T, P]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[P], error) {
	filter = filter.Normalize()

	var items []P
	r.store.read(func(st *state) {
		for _, row := range r.table(st) {
			p := P(&row)
			b := r.base(p)
			if matchesSearch(filter.Search, b.Code, b.Name) {
				items = append(items, p)
			}
		}
	})
	sortByID(items, func(p P) id.ID { return p.GetID() })

	return domain.ListResult[P]{
		Items:      page(items, filter.Limit, filter.Offset),
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *CatalogRepo[T, P]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	var ok bool
	r.store.read(func(st *state) {
		_, ok = r.table(st)[entityID]
	})
	return ok, nil
}

func (r *CatalogRepo[T, P]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var ok bool
	r.store.read(func(st *state) {
		for _, row := range r.table(st) {
			if r.base(P(&row)).Code == code {
				ok = true
				return
			}
		}
	})
	return ok, nil
}

// Products returns the product repository.
func (s *Store) Products() *CatalogRepo[product.Product, *product.Product] {
	return &CatalogRepo[product.Product, *product.Product]{
		store:  s,
		entity: "product",
		table:  func(st *state) map[id.ID]product.Product { return st.products },
		base:   func(p *product.Product) *entity.Catalog { return &p.Catalog },
	}
}

// Employees returns the employee repository.
func (s *Store) Employees() *CatalogRepo[employee.Employee, *employee.Employee] {
	return &CatalogRepo[employee.Employee, *employee.Employee]{
		store:  s,
		entity: "employee",
		table:  func(st *state) map[id.ID]employee.Employee { return st.employees },
		base:   func(e *employee.Employee) *entity.Catalog { return &e.Catalog },
	}
}

// CustomerRepo adds loyalty balance writes to the catalog repository.
type CustomerRepo struct {
	*CatalogRepo[customer.Customer, *customer.Customer]
}

// Customers returns the customer repository.
func (s *Store) Customers() *CustomerRepo {
	return &CustomerRepo{
		CatalogRepo: &CatalogRepo[customer.Customer, *customer.Customer]{
			store:  s,
			entity: "customer",
			table:  func(st *state) map[id.ID]customer.Customer { return st.customers },
			base:   func(c *customer.Customer) *entity.Catalog { return &c.Catalog },
		},
	}
}

// GetForUpdate returns the customer; transactions are already serialized.
func (r *CustomerRepo) GetForUpdate(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	return r.GetByID(ctx, customerID)
}

func (r *CustomerRepo) UpdateBalances(ctx context.Context, customerID id.ID, points int64, totalPurchases types.Money) error {
	return r.store.write(func(st *state) error {
		c, ok := st.customers[customerID]
		if !ok {
			return apperror.NewNotFound("customer", customerID.String())
		}
		c.LoyaltyPoints = points
		c.TotalPurchases = totalPurchases
		c.Touch()
		st.customers[customerID] = c
		return nil
	})
}

var (
	_ product.Repository  = (*CatalogRepo[product.Product, *product.Product])(nil)
	_ employee.Repository = (*CatalogRepo[employee.Employee, *employee.Employee])(nil)
	_ customer.Repository = (*CustomerRepo)(nil)
)
