package dto

import (
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/catalogs/employee"
	"pharmaledger/internal/domain/catalogs/product"
)

// --- Products ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Code            string      `json:"code" binding:"max=50"`
	Name            string      `json:"name" binding:"required,max=200"`
	UnitsPerPackage int64       `json:"unitsPerPackage" binding:"omitempty,min=1"`
	SellingPrice    types.Money `json:"sellingPrice" binding:"money"`
	PurchasePrice   types.Money `json:"purchasePrice" binding:"money"`
	Barcode         string      `json:"barcode" binding:"max=64"`
	Manufacturer    string      `json:"manufacturer" binding:"max=200"`
}

// ToEntity builds the product.
func (r CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.Code, r.Name)
	if r.UnitsPerPackage > 0 {
		p.UnitsPerPackage = r.UnitsPerPackage
	}
	p.SellingPrice = r.SellingPrice
	p.PurchasePrice = r.PurchasePrice
	p.Barcode = r.Barcode
	p.Manufacturer = r.Manufacturer
	return p
}

// UpdateProductRequest patches a product; nil fields are left unchanged.
type UpdateProductRequest struct {
	Code            *string      `json:"code" binding:"omitempty,max=50"`
	Name            *string      `json:"name" binding:"omitempty,max=200"`
	UnitsPerPackage *int64       `json:"unitsPerPackage" binding:"omitempty,min=1"`
	SellingPrice    *types.Money `json:"sellingPrice" binding:"omitempty,money"`
	PurchasePrice   *types.Money `json:"purchasePrice" binding:"omitempty,money"`
	Barcode         *string      `json:"barcode" binding:"omitempty,max=64"`
	Manufacturer    *string      `json:"manufacturer" binding:"omitempty,max=200"`
}

// Apply copies the set fields onto p.
func (r UpdateProductRequest) Apply(p *product.Product) error {
	setString(&p.Code, r.Code)
	setString(&p.Name, r.Name)
	if r.UnitsPerPackage != nil {
		p.UnitsPerPackage = *r.UnitsPerPackage
	}
	if r.SellingPrice != nil {
		p.SellingPrice = *r.SellingPrice
	}
	if r.PurchasePrice != nil {
		p.PurchasePrice = *r.PurchasePrice
	}
	setString(&p.Barcode, r.Barcode)
	setString(&p.Manufacturer, r.Manufacturer)
	return nil
}

// --- Customers ---

// CreateCustomerRequest is the request body for registering a customer.
type CreateCustomerRequest struct {
	Code  string `json:"code" binding:"max=50"`
	Name  string `json:"name" binding:"required,max=200"`
	Phone string `json:"phone" binding:"max=32"`
	Email string `json:"email" binding:"omitempty,email"`
}

// ToEntity builds the customer with no points.
func (r CreateCustomerRequest) ToEntity() *customer.Customer {
	c := customer.NewCustomer(r.Code, r.Name)
	c.Phone = r.Phone
	c.Email = r.Email
	return c
}

// UpdateCustomerRequest patches a customer profile. Points and lifetime
// purchases are not writable here.
type UpdateCustomerRequest struct {
	Code  *string `json:"code" binding:"omitempty,max=50"`
	Name  *string `json:"name" binding:"omitempty,max=200"`
	Phone *string `json:"phone" binding:"omitempty,max=32"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// Apply copies the set fields onto c.
func (r UpdateCustomerRequest) Apply(c *customer.Customer) error {
	setString(&c.Code, r.Code)
	setString(&c.Name, r.Name)
	setString(&c.Phone, r.Phone)
	setString(&c.Email, r.Email)
	return nil
}

// --- Employees ---

// CreateEmployeeRequest is the request body for hiring an employee.
type CreateEmployeeRequest struct {
	Code     string      `json:"code" binding:"max=50"`
	Name     string      `json:"name" binding:"required,max=200"`
	Position string      `json:"position" binding:"max=100"`
	Phone    string      `json:"phone" binding:"max=32"`
	Salary   types.Money `json:"salary" binding:"money"`
}

// ToEntity builds an active employee.
func (r CreateEmployeeRequest) ToEntity() *employee.Employee {
	e := employee.NewEmployee(r.Code, r.Name)
	e.Position = r.Position
	e.Phone = r.Phone
	e.Salary = r.Salary
	return e
}

// UpdateEmployeeRequest patches an employee.
type UpdateEmployeeRequest struct {
	Code     *string      `json:"code" binding:"omitempty,max=50"`
	Name     *string      `json:"name" binding:"omitempty,max=200"`
	Position *string      `json:"position" binding:"omitempty,max=100"`
	Phone    *string      `json:"phone" binding:"omitempty,max=32"`
	Salary   *types.Money `json:"salary" binding:"omitempty,money"`
	Active   *bool        `json:"active"`
}

// Apply copies the set fields onto e.
func (r UpdateEmployeeRequest) Apply(e *employee.Employee) error {
	setString(&e.Code, r.Code)
	setString(&e.Name, r.Name)
	setString(&e.Position, r.Position)
	setString(&e.Phone, r.Phone)
	if r.Salary != nil {
		e.Salary = *r.Salary
	}
	if r.Active != nil {
		e.Active = *r.Active
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
