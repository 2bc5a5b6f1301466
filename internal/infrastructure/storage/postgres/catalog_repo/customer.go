package catalog_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// CustomerRepo stores cat_customers. Loyalty points and lifetime purchases
// are written by UpdateBalances only, so a profile edit racing a sale
// cannot roll them back.
type CustomerRepo struct {
	*catalog[*customer.Customer]
}

func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	c := newCatalog(txm, "cat_customers", "customer",
		postgres.Columns[customer.Customer](),
		func() *customer.Customer { return new(customer.Customer) })
	c.managed = []string{"loyalty_points", "total_purchases"}
	return &CustomerRepo{c}
}

// UpdateBalances sets loyalty points and lifetime purchases.
func (r *CustomerRepo) UpdateBalances(ctx context.Context, customerID id.ID, points int64, totalPurchases types.Money) error {
	n, err := r.exec(ctx, psql.Update(r.table).
		Set("loyalty_points", points).
		Set("total_purchases", totalPurchases).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": customerID}), "")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("customer", customerID.String())
	}
	return nil
}

var _ customer.Repository = (*CustomerRepo)(nil)
