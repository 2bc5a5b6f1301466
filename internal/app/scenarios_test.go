package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/catalogs/employee"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/documents"
	"pharmaledger/internal/domain/documents/damaged_item"
	"pharmaledger/internal/domain/documents/purchase"
	"pharmaledger/internal/domain/documents/purchase_return"
	"pharmaledger/internal/domain/documents/sale"
	"pharmaledger/internal/domain/documents/salary_payment"
	"pharmaledger/internal/domain/documents/sales_return"
	"pharmaledger/internal/domain/documents/supplier_payment"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/internal/infrastructure/storage/memory"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	svc   *Services
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	svc, store, err := NewMemoryServices("")
	require.NoError(t, err)
	return fixtureFor(t, svc, store)
}

func fixtureFor(t *testing.T, svc *Services, store *memory.Store) *fixture {
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "pharmacist-1", Username: "pharmacist"})
	return &fixture{t: t, ctx: ctx, svc: svc, store: store}
}

// newFixtureWith builds services over a memory store whose repositories
// have been altered by patch.
func newFixtureWith(t *testing.T, patch func(*Repositories)) *fixture {
	t.Helper()
	store := memory.New()
	repos := MemoryRepositories(store)
	patch(&repos)
	svc, err := NewServices(Deps{Repos: repos, TxManager: store, Numerator: store})
	require.NoError(t, err)
	return fixtureFor(t, svc, store)
}

func money(s string) types.Money { return types.MustMoney(s) }

func qty(n int64) types.Quantity { return types.NewQuantity(n) }

func (f *fixture) product(unitsPerPackage int64) *product.Product {
	f.t.Helper()
	p := product.NewProduct("", "Paracetamol 500mg")
	p.UnitsPerPackage = unitsPerPackage
	p.SellingPrice = money("12.50")
	p.PurchasePrice = money("8.00")
	require.NoError(f.t, f.svc.Products.Create(f.ctx, p))
	return p
}

func (f *fixture) account(opening string) *account.BankAccount {
	f.t.Helper()
	acc, err := f.svc.Accounts.Open(f.ctx, account.OpenInput{
		Name:           "Main till",
		Kind:           account.KindCash,
		OpeningBalance: money(opening),
	})
	require.NoError(f.t, err)
	return acc
}

func (f *fixture) supplier(opening string) *supplier_ledger.Supplier {
	f.t.Helper()
	s, err := f.svc.Ledger.RegisterSupplier(f.ctx, supplier_ledger.RegisterInput{
		Name:           "MedSupply Ltd",
		OpeningBalance: money(opening),
	})
	require.NoError(f.t, err)
	return s
}

func (f *fixture) customer(points int64) *customer.Customer {
	f.t.Helper()
	c := customer.NewCustomer("", "Jane Roe")
	c.LoyaltyPoints = points
	require.NoError(f.t, f.svc.Customers.Create(f.ctx, c))
	return c
}

func (f *fixture) stockOf(productID id.ID) types.Quantity {
	f.t.Helper()
	rec, err := f.svc.Stock.Get(f.ctx, productID)
	require.NoError(f.t, err)
	return rec.Quantity
}

func (f *fixture) accountState(accountID id.ID) *account.BankAccount {
	f.t.Helper()
	acc, err := f.svc.Accounts.Get(f.ctx, accountID)
	require.NoError(f.t, err)
	return acc
}

func (f *fixture) supplierState(supplierID id.ID) *supplier_ledger.Supplier {
	f.t.Helper()
	s, err := f.svc.Ledger.GetSupplier(f.ctx, supplierID)
	require.NoError(f.t, err)
	return s
}

func (f *fixture) customerState(customerID id.ID) *customer.Customer {
	f.t.Helper()
	c, err := f.svc.Customers.GetByID(f.ctx, customerID)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) stockUp(productID id.ID, units int64) {
	f.t.Helper()
	_, err := f.svc.Stock.UpdateQuantity(f.ctx, productID, qty(units))
	require.NoError(f.t, err)
}

func (f *fixture) assertInvariants() {
	f.t.Helper()
	report, err := f.svc.Reconcile.Run(f.ctx)
	require.NoError(f.t, err)
	assert.True(f.t, report.OK(), "violations: %v", report.Violations)
}

func (f *fixture) auditEntries(entityType string) []audit.Entry {
	f.t.Helper()
	entries, err := f.svc.Audit.List(f.ctx, audit.ListFilter{EntityType: entityType})
	require.NoError(f.t, err)
	return entries
}

func TestScenarioA_SupplierPayment(t *testing.T) {
	f := newFixture(t)
	sup := f.supplier("100")
	acc := f.account("500")

	pay, err := f.svc.SupplierPayments.Create(f.ctx, supplier_payment.CreateInput{
		SupplierID: sup.ID,
		AccountID:  acc.ID,
		Amount:     money("40"),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^SP-\d{4}-00001$`, pay.Number)
	require.NotNil(t, pay.LedgerEntryID)

	s := f.supplierState(sup.ID)
	assert.True(t, s.Payable().Equal(money("60")), "payable %s", s.Payable())
	assert.True(t, s.TotalPayments.Equal(money("40")))

	a := f.accountState(acc.ID)
	assert.True(t, a.CurrentBalance.Equal(money("460")))
	assert.True(t, a.TotalWithdrawals.Equal(money("40")))

	stmt, err := f.svc.Ledger.Statement(f.ctx, sup.ID)
	require.NoError(t, err)
	require.Len(t, stmt.Entries, 2)
	assert.Equal(t, supplier_ledger.EntryOpeningBalance, stmt.Entries[0].Type)
	assert.Equal(t, supplier_ledger.EntryPayment, stmt.Entries[1].Type)
	assert.True(t, stmt.Entries[1].Balance.Equal(money("60")))

	require.Len(t, f.auditEntries("supplier_payment"), 1)
	f.assertInvariants()
}

func TestScenarioB_PurchaseConvertsPackages(t *testing.T) {
	f := newFixture(t)
	p := f.product(10)
	sup := f.supplier("0")

	doc, err := f.svc.Purchases.Create(f.ctx, purchase.CreateInput{
		SupplierID: sup.ID,
		Items: []purchase.ItemInput{
			{ProductID: p.ID, Quantity: qty(5), UnitPrice: money("100")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, qty(50), f.stockOf(p.ID))
	assert.True(t, doc.TotalAmount.Equal(money("500")))
	assert.Equal(t, qty(50), doc.Items[0].BaseQuantity)

	s := f.supplierState(sup.ID)
	assert.True(t, s.CurrentBalance.Equal(money("500")))
	assert.True(t, s.TotalPurchases.Equal(money("500")))
	f.assertInvariants()
}

func TestScenarioC_LoyaltyOnSale(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	f.stockUp(p.ID, 10)
	c := f.customer(20)

	doc, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		CustomerID: &c.ID,
		Items: []sale.ItemInput{
			{ProductID: p.ID, Quantity: qty(1), UnitPrice: money("97")},
		},
	})
	require.NoError(t, err)

	assert.True(t, doc.TotalAmount.Equal(money("97")))
	assert.Equal(t, int64(9), doc.PointsEarned)

	got := f.customerState(c.ID)
	assert.Equal(t, int64(29), got.LoyaltyPoints)
	assert.True(t, got.TotalPurchases.Equal(money("97")))
}

func TestSale_PointsJustBelowBoundary(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	f.stockUp(p.ID, 10)
	c := f.customer(0)

	doc, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		CustomerID: &c.ID,
		Discount:   money("10.0001"),
		Items: []sale.ItemInput{
			{ProductID: p.ID, Quantity: qty(2), UnitPrice: money("10")},
		},
	})
	require.NoError(t, err)
	assert.True(t, doc.TotalAmount.Equal(money("9.9999")))
	assert.Equal(t, int64(0), doc.PointsEarned)

	_, err = f.svc.Sales.Create(f.ctx, sale.CreateInput{
		CustomerID: &c.ID,
		Discount:   money("10.00000000000000001"),
		Items: []sale.ItemInput{
			{ProductID: p.ID, Quantity: qty(2), UnitPrice: money("10")},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, int64(0), f.customerState(c.ID).LoyaltyPoints)
}

func TestScenarioD_PartialReturnsRefundSale(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	f.stockUp(p.ID, 10)

	s, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		Items: []sale.ItemInput{{ProductID: p.ID, Quantity: qty(10), UnitPrice: money("5")}},
	})
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCompleted, s.Status)
	assert.Equal(t, qty(0), f.stockOf(p.ID))

	_, err = f.svc.SalesReturns.Create(f.ctx, sales_return.CreateInput{
		SaleID: s.ID,
		Items:  []sales_return.ItemInput{{ProductID: p.ID, Quantity: qty(4)}},
	})
	require.NoError(t, err)
	got, err := f.svc.Sales.GetByID(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusPartiallyReturned, got.Status)

	_, err = f.svc.SalesReturns.Create(f.ctx, sales_return.CreateInput{
		SaleID: s.ID,
		Items:  []sales_return.ItemInput{{ProductID: p.ID, Quantity: qty(6)}},
	})
	require.NoError(t, err)
	got, err = f.svc.Sales.GetByID(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusRefunded, got.Status)
	assert.True(t, got.TotalAmount.Equal(money("50")), "sale total is kept as sold")
	assert.Equal(t, qty(10), f.stockOf(p.ID))

	updates, err := f.svc.Audit.List(f.ctx, audit.ListFilter{EntityType: "sale", EntityID: s.ID.String()})
	require.NoError(t, err)
	var statusChanges int
	for _, e := range updates {
		if e.Action == audit.ActionUpdate {
			statusChanges++
		}
	}
	assert.Equal(t, 2, statusChanges)
}

func TestScenarioE_DamagedItemClampsStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	f.stockUp(p.ID, 3)

	doc, err := f.svc.DamagedItems.Create(f.ctx, damaged_item.CreateInput{
		ProductID: p.ID,
		Quantity:  qty(5),
		Reason:    "Expired",
	})
	require.NoError(t, err)

	assert.Equal(t, qty(0), f.stockOf(p.ID))
	assert.Equal(t, qty(0), doc.Remaining)
	assert.Equal(t, damaged_item.ReasonExpired, doc.Reason)
	assert.True(t, doc.EstimatedLoss.Equal(money("40")))
	f.assertInvariants()
}

func TestPurchase_CreateThenDeleteRestoresState(t *testing.T) {
	f := newFixture(t)
	p := f.product(12)
	f.stockUp(p.ID, 7)
	sup := f.supplier("250")
	acc := f.account("1000")

	beforeStock := f.stockOf(p.ID)
	beforeAcc := f.accountState(acc.ID)
	beforeSup := f.supplierState(sup.ID)

	doc, err := f.svc.Purchases.Create(f.ctx, purchase.CreateInput{
		SupplierID:    sup.ID,
		AccountID:     &acc.ID,
		InvoiceNumber: "INV-778",
		PaidAmount:    money("150"),
		Items: []purchase.ItemInput{
			{ProductID: p.ID, Quantity: qty(3), UnitPrice: money("60"), BatchNumber: "B-1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, beforeStock+qty(36), f.stockOf(p.ID))

	stmt, err := f.svc.Ledger.Statement(f.ctx, sup.ID)
	require.NoError(t, err)
	require.Len(t, stmt.Entries, 3, "opening, purchase and payment rows")
	f.assertInvariants()

	require.NoError(t, f.svc.Purchases.Delete(f.ctx, doc.ID))

	assert.Equal(t, beforeStock, f.stockOf(p.ID))

	afterAcc := f.accountState(acc.ID)
	assert.True(t, afterAcc.CurrentBalance.Equal(beforeAcc.CurrentBalance))
	assert.True(t, afterAcc.TotalWithdrawals.Equal(beforeAcc.TotalWithdrawals))

	afterSup := f.supplierState(sup.ID)
	assert.True(t, afterSup.CurrentBalance.Equal(beforeSup.CurrentBalance))
	assert.True(t, afterSup.TotalPurchases.Equal(beforeSup.TotalPurchases))
	assert.True(t, afterSup.TotalPayments.Equal(beforeSup.TotalPayments))

	stmt, err = f.svc.Ledger.Statement(f.ctx, sup.ID)
	require.NoError(t, err)
	require.Len(t, stmt.Entries, 1)
	assert.Equal(t, supplier_ledger.EntryOpeningBalance, stmt.Entries[0].Type)

	_, err = f.svc.Purchases.GetByID(f.ctx, doc.ID)
	assert.True(t, apperror.IsNotFound(err))

	deletes := f.auditEntries("purchase")
	require.NotEmpty(t, deletes)
	assert.Equal(t, audit.ActionDelete, deletes[0].Action)
	assert.EqualValues(t, 1, deletes[0].Changes["itemsDeleted"])
	f.assertInvariants()
}

func TestPurchase_DeleteBlockedByReturns(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	sup := f.supplier("0")

	doc, err := f.svc.Purchases.Create(f.ctx, purchase.CreateInput{
		SupplierID: sup.ID,
		Items:      []purchase.ItemInput{{ProductID: p.ID, Quantity: qty(10), UnitPrice: money("2")}},
	})
	require.NoError(t, err)

	_, err = f.svc.PurchaseReturns.Create(f.ctx, purchase_return.CreateInput{
		PurchaseID: doc.ID,
		Items:      []purchase_return.ItemInput{{ProductID: p.ID, Quantity: qty(2)}},
	})
	require.NoError(t, err)

	err = f.svc.Purchases.Delete(f.ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
	assert.Equal(t, qty(8), f.stockOf(p.ID))
}

func TestPurchase_PaidAboveTotalRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	sup := f.supplier("0")

	_, err := f.svc.Purchases.Create(f.ctx, purchase.CreateInput{
		SupplierID: sup.ID,
		PaidAmount: money("11"),
		Items:      []purchase.ItemInput{{ProductID: p.ID, Quantity: qty(1), UnitPrice: money("10")}},
	})
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, qty(0), f.stockOf(p.ID))
}

func TestPurchase_DuplicateInvoiceRollsBack(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	sup := f.supplier("0")
	in := purchase.CreateInput{
		SupplierID:    sup.ID,
		InvoiceNumber: "INV-1",
		Items:         []purchase.ItemInput{{ProductID: p.ID, Quantity: qty(1), UnitPrice: money("10")}},
	}

	_, err := f.svc.Purchases.Create(f.ctx, in)
	require.NoError(t, err)
	_, err = f.svc.Purchases.Create(f.ctx, in)
	assert.True(t, apperror.IsDuplicate(err))

	assert.Equal(t, qty(1), f.stockOf(p.ID))
	assert.True(t, f.supplierState(sup.ID).TotalPurchases.Equal(money("10")))
}

func TestPurchaseReturn_NoConversionAndLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	p := f.product(10)
	sup := f.supplier("0")
	acc := f.account("0")

	doc, err := f.svc.Purchases.Create(f.ctx, purchase.CreateInput{
		SupplierID: sup.ID,
		Items:      []purchase.ItemInput{{ProductID: p.ID, Quantity: qty(2), UnitPrice: money("30")}},
	})
	require.NoError(t, err)
	require.Equal(t, qty(20), f.stockOf(p.ID))

	ret, err := f.svc.PurchaseReturns.Create(f.ctx, purchase_return.CreateInput{
		PurchaseID:   doc.ID,
		AccountID:    &acc.ID,
		RefundAmount: money("15"),
		Items:        []purchase_return.ItemInput{{ProductID: p.ID, Quantity: qty(5)}},
	})
	require.NoError(t, err)
	assert.True(t, ret.TotalAmount.Equal(money("150")), "price defaults to the purchase price")

	assert.Equal(t, qty(15), f.stockOf(p.ID))
	a := f.accountState(acc.ID)
	assert.True(t, a.CurrentBalance.Equal(money("15")))
	assert.True(t, a.TotalDeposits.Equal(money("15")))
	assert.True(t, f.supplierState(sup.ID).CurrentBalance.Equal(money("60")))
	f.assertInvariants()
}

func TestPurchaseReturn_UnknownPurchase(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PurchaseReturns.Create(f.ctx, purchase_return.CreateInput{
		PurchaseID: id.New(),
		Items:      []purchase_return.ItemInput{{ProductID: id.New(), Quantity: qty(1)}},
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestSupplierPayment_InsufficientFundsWritesNothing(t *testing.T) {
	f := newFixture(t)
	sup := f.supplier("100")
	acc := f.account("30")

	_, err := f.svc.SupplierPayments.Create(f.ctx, supplier_payment.CreateInput{
		SupplierID: sup.ID,
		AccountID:  acc.ID,
		Amount:     money("40"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientFunds(err))

	assert.True(t, f.accountState(acc.ID).CurrentBalance.Equal(money("30")))
	assert.True(t, f.supplierState(sup.ID).Payable().Equal(money("100")))
	stmt, err := f.svc.Ledger.Statement(f.ctx, sup.ID)
	require.NoError(t, err)
	assert.Len(t, stmt.Entries, 1)

	list, err := f.svc.SupplierPayments.List(f.ctx, documentsFilter())
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
	assert.Empty(t, f.auditEntries("supplier_payment"))
}

func TestSupplierPayment_UnknownSupplierRollsBack(t *testing.T) {
	f := newFixture(t)
	acc := f.account("100")

	_, err := f.svc.SupplierPayments.Create(f.ctx, supplier_payment.CreateInput{
		SupplierID: id.New(),
		AccountID:  acc.ID,
		Amount:     money("10"),
	})
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, f.accountState(acc.ID).CurrentBalance.Equal(money("100")))
}

func TestSalaryPayment(t *testing.T) {
	f := newFixture(t)
	acc := f.account("3000")
	emp := employee.NewEmployee("", "John Smith")
	emp.Salary = money("1200")
	require.NoError(t, f.svc.Employees.Create(f.ctx, emp))

	pay, err := f.svc.SalaryPayments.Create(f.ctx, salary_payment.CreateInput{
		EmployeeID: emp.ID,
		AccountID:  acc.ID,
	})
	require.NoError(t, err)
	assert.True(t, pay.Amount.Equal(money("1200")), "defaults to configured salary")
	assert.Len(t, pay.Period, len("2006-01"))
	assert.True(t, f.accountState(acc.ID).CurrentBalance.Equal(money("1800")))

	_, err = f.svc.SalaryPayments.Create(f.ctx, salary_payment.CreateInput{
		EmployeeID: emp.ID,
		AccountID:  acc.ID,
		Amount:     money("2000"),
	})
	assert.True(t, apperror.IsInsufficientFunds(err))

	_, err = f.svc.SalaryPayments.Create(f.ctx, salary_payment.CreateInput{
		EmployeeID: id.New(),
		AccountID:  acc.ID,
		Amount:     money("1"),
	})
	assert.True(t, apperror.IsNotFound(err))
	f.assertInvariants()
}

func TestSale_MissingProductFailsBeforeAnyWrite(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	f.stockUp(p.ID, 5)
	acc := f.account("0")

	_, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		AccountID:  &acc.ID,
		PaidAmount: money("10"),
		Items: []sale.ItemInput{
			{ProductID: p.ID, Quantity: qty(1), UnitPrice: money("10")},
			{ProductID: id.New(), Quantity: qty(1), UnitPrice: money("10")},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	assert.Equal(t, qty(5), f.stockOf(p.ID))
	assert.True(t, f.accountState(acc.ID).CurrentBalance.IsZero())
}

func TestSale_RedemptionAndDiscount(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	f.stockUp(p.ID, 5)
	c := f.customer(30)
	acc := f.account("0")

	doc, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		CustomerID:     &c.ID,
		AccountID:      &acc.ID,
		PaidAmount:     money("60"),
		Discount:       money("10"),
		PointsRedeemed: 30,
		Items:          []sale.ItemInput{{ProductID: p.ID, Quantity: qty(2), UnitPrice: money("50")}},
	})
	require.NoError(t, err)
	assert.True(t, doc.Subtotal.Equal(money("100")))
	assert.True(t, doc.TotalAmount.Equal(money("60")))
	assert.Equal(t, int64(6), doc.PointsEarned)
	assert.Equal(t, int64(6), f.customerState(c.ID).LoyaltyPoints)
	assert.True(t, f.accountState(acc.ID).TotalDeposits.Equal(money("60")))

	_, err = f.svc.Sales.Create(f.ctx, sale.CreateInput{
		CustomerID:     &c.ID,
		PointsRedeemed: 7,
		Items:          []sale.ItemInput{{ProductID: p.ID, Quantity: qty(1), UnitPrice: money("50")}},
	})
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, qty(3), f.stockOf(p.ID))
	f.assertInvariants()
}

func TestSalesReturn_DeductsPointsAndDebitsRefund(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	f.stockUp(p.ID, 5)
	c := f.customer(0)
	acc := f.account("500")

	s, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		CustomerID: &c.ID,
		AccountID:  &acc.ID,
		PaidAmount: money("100"),
		Items:      []sale.ItemInput{{ProductID: p.ID, Quantity: qty(4), UnitPrice: money("25")}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), f.customerState(c.ID).LoyaltyPoints)

	ret, err := f.svc.SalesReturns.Create(f.ctx, sales_return.CreateInput{
		SaleID:       s.ID,
		AccountID:    &acc.ID,
		RefundAmount: money("50"),
		Items:        []sales_return.ItemInput{{ProductID: p.ID, Quantity: qty(2)}},
	})
	require.NoError(t, err)
	assert.True(t, ret.TotalAmount.Equal(money("50")))
	assert.Equal(t, int64(5), ret.PointsDeducted)

	got := f.customerState(c.ID)
	assert.Equal(t, int64(5), got.LoyaltyPoints)
	assert.True(t, got.TotalPurchases.Equal(money("100")))

	a := f.accountState(acc.ID)
	assert.True(t, a.CurrentBalance.Equal(money("550")))
	assert.True(t, a.TotalWithdrawals.Equal(money("50")))
	assert.Equal(t, qty(3), f.stockOf(p.ID))

	_, err = f.svc.SalesReturns.Create(f.ctx, sales_return.CreateInput{
		SaleID: s.ID,
		Items:  []sales_return.ItemInput{{ProductID: id.New(), Quantity: qty(1)}},
	})
	assert.True(t, apperror.IsValidation(err))
	f.assertInvariants()
}

func TestSaleStatus_NeverMovesBackwards(t *testing.T) {
	f := newFixture(t)
	a := f.product(1)
	b := f.product(1)
	f.stockUp(a.ID, 10)
	f.stockUp(b.ID, 10)

	s, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		Items: []sale.ItemInput{
			{ProductID: a.ID, Quantity: qty(2), UnitPrice: money("1")},
			{ProductID: b.ID, Quantity: qty(2), UnitPrice: money("1")},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.SalesReturns.Create(f.ctx, sales_return.CreateInput{
		SaleID: s.ID,
		Items:  []sales_return.ItemInput{{ProductID: a.ID, Quantity: qty(1)}},
	})
	require.NoError(t, err)
	got, err := f.svc.Sales.GetByID(f.ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, sale.StatusPartiallyReturned, got.Status)

	// a is now fully returned and b untouched: no line is partially
	// returned, but the status stays where it was.
	_, err = f.svc.SalesReturns.Create(f.ctx, sales_return.CreateInput{
		SaleID: s.ID,
		Items:  []sales_return.ItemInput{{ProductID: a.ID, Quantity: qty(1)}},
	})
	require.NoError(t, err)
	got, err = f.svc.Sales.GetByID(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusPartiallyReturned, got.Status)
}

func TestSalesReturn_CannotExceedSoldQuantity(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	f.stockUp(p.ID, 10)

	s, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		Items: []sale.ItemInput{{ProductID: p.ID, Quantity: qty(10), UnitPrice: money("5")}},
	})
	require.NoError(t, err)

	_, err = f.svc.SalesReturns.Create(f.ctx, sales_return.CreateInput{
		SaleID: s.ID,
		Items:  []sales_return.ItemInput{{ProductID: p.ID, Quantity: qty(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, qty(10), f.stockOf(p.ID))

	_, err = f.svc.SalesReturns.Create(f.ctx, sales_return.CreateInput{
		SaleID: s.ID,
		Items:  []sales_return.ItemInput{{ProductID: p.ID, Quantity: qty(1)}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, qty(10), f.stockOf(p.ID), "a rejected return restocks nothing")
}

func TestSalesReturn_LinesOfOneProductShareTheCap(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	f.stockUp(p.ID, 10)

	s, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		Items: []sale.ItemInput{{ProductID: p.ID, Quantity: qty(3), UnitPrice: money("5")}},
	})
	require.NoError(t, err)

	_, err = f.svc.SalesReturns.Create(f.ctx, sales_return.CreateInput{
		SaleID: s.ID,
		Items: []sales_return.ItemInput{
			{ProductID: p.ID, Quantity: qty(2)},
			{ProductID: p.ID, Quantity: qty(2)},
		},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 2, appErr.Details["line"])
	assert.Equal(t, qty(7), f.stockOf(p.ID))
}

type failingAccounts struct {
	account.Repository
	err error
}

func (f failingAccounts) UpdateBalances(context.Context, *account.BankAccount) error {
	return f.err
}

func TestSale_RollbackOnMidSequenceFailure(t *testing.T) {
	boom := errors.New("disk full")
	f := newFixtureWith(t, func(r *Repositories) {
		r.Accounts = failingAccounts{Repository: r.Accounts, err: boom}
	})
	p := f.product(1)
	f.stockUp(p.ID, 5)
	c := f.customer(10)
	acc := f.account("0")

	_, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		CustomerID: &c.ID,
		AccountID:  &acc.ID,
		PaidAmount: money("40"),
		Items:      []sale.ItemInput{{ProductID: p.ID, Quantity: qty(2), UnitPrice: money("20")}},
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, qty(5), f.stockOf(p.ID))
	assert.Equal(t, int64(10), f.customerState(c.ID).LoyaltyPoints)
	list, err := f.svc.Sales.List(f.ctx, documentsFilter())
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
	assert.Empty(t, f.auditEntries("sale"))
}

type failingAudit struct{}

func (failingAudit) Insert(context.Context, *audit.Entry) error { return errors.New("audit store down") }

func (failingAudit) List(context.Context, audit.ListFilter) ([]audit.Entry, error) { return nil, nil }

func TestAuditFailureDoesNotFailOperation(t *testing.T) {
	f := newFixtureWith(t, func(r *Repositories) {
		r.Audit = failingAudit{}
	})
	p := f.product(1)
	f.stockUp(p.ID, 5)

	doc, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
		Items: []sale.ItemInput{{ProductID: p.ID, Quantity: qty(1), UnitPrice: money("3")}},
	})
	require.NoError(t, err)

	got, err := f.svc.Sales.GetByID(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, qty(4), f.stockOf(p.ID))
}

func TestDocumentNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	p := f.product(1)
	f.stockUp(p.ID, 5)

	var numbers []string
	for range 3 {
		doc, err := f.svc.Sales.Create(f.ctx, sale.CreateInput{
			Items: []sale.ItemInput{{ProductID: p.ID, Quantity: qty(1), UnitPrice: money("1")}},
		})
		require.NoError(t, err)
		numbers = append(numbers, doc.Number)
	}
	assert.Regexp(t, `^SL-\d{4}-00001$`, numbers[0])
	assert.Regexp(t, `^SL-\d{4}-00003$`, numbers[2])
}

func documentsFilter() documents.ListFilter { return documents.ListFilter{} }
