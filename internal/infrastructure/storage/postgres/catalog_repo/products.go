package catalog_repo

import (
	"pharmaledger/internal/domain/catalogs/employee"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// ProductRepo stores cat_products.
type ProductRepo struct {
	*catalog[*product.Product]
}

func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{newCatalog(txm, "cat_products", "product",
		postgres.Columns[product.Product](),
		func() *product.Product { return new(product.Product) })}
}

// EmployeeRepo stores cat_employees.
type EmployeeRepo struct {
	*catalog[*employee.Employee]
}

func NewEmployeeRepo(txm *postgres.TxManager) *EmployeeRepo {
	return &EmployeeRepo{newCatalog(txm, "cat_employees", "employee",
		postgres.Columns[employee.Employee](),
		func() *employee.Employee { return new(employee.Employee) })}
}

var (
	_ product.Repository  = (*ProductRepo)(nil)
	_ employee.Repository = (*EmployeeRepo)(nil)
)
