// Package main seeds a database with demo catalogs and registers, and can
// print a signed admin token for local use.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"pharmaledger/internal/app"
	"pharmaledger/internal/config"
	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/auth"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/catalogs/employee"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/pkg/logger"
)

func main() {
	printToken := flag.Bool("token", false, "print an admin bearer token and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if *printToken {
		if cfg.JWT.Secret == "" {
			log.Fatalf("%s is required to sign tokens", config.EnvJWTSecret)
		}
		tokens := auth.NewTokens(auth.TokenConfig{
			Secret: cfg.JWT.Secret,
			Issuer: cfg.JWT.Issuer,
			TTL:    *tokenTTL,
		})
		token, err := tokens.Issue(appctx.UserContext{
			UserID:   "admin",
			Username: "admin",
			Roles:    []string{auth.RoleAdmin},
		})
		if err != nil {
			log.Fatalw("failed to sign token", "error", err)
		}
		fmt.Println(token.Value)
		log.Infow("token issued", "expires_at", token.ExpiresAt)
		return
	}

	if cfg.DB.InMemory() {
		log.Fatalf("%s is required", config.EnvDatabaseURL)
	}

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "seed", Username: "seed"})

	backend, err := app.OpenPostgres(ctx, cfg.DB)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer backend.Close()

	services, err := app.NewPostgresServices(backend, cfg)
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	if err := seedDemoData(ctx, services, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}
	log.Info("seeding completed successfully")
}

func seedDemoData(ctx context.Context, svc *app.Services, log *logger.Logger) error {
	log.Info("seeding demo data...")

	products := []struct {
		code, name, manufacturer string
		units                    int64
		sell, buy                string
	}{
		{"PRD-PARA500", "Paracetamol 500mg", "Generic Labs", 10, "0.50", "0.30"},
		{"PRD-IBU400", "Ibuprofen 400mg", "Generic Labs", 20, "0.80", "0.45"},
		{"PRD-AMOX250", "Amoxicillin 250mg", "Medico", 12, "1.20", "0.70"},
		{"PRD-VITC", "Vitamin C 1000mg", "Nutri", 30, "0.40", "0.20"},
	}
	for _, p := range products {
		e := product.NewProduct(p.code, p.name)
		e.Manufacturer = p.manufacturer
		e.UnitsPerPackage = p.units
		e.SellingPrice = types.MustMoney(p.sell)
		e.PurchasePrice = types.MustMoney(p.buy)
		if err := skipDuplicate(log, "product", p.code, svc.Products.Create(ctx, e)); err != nil {
			return err
		}
	}

	c := customer.NewCustomer("CUS-0001", "Walk-in Regular")
	c.Phone = "+10000000001"
	if err := skipDuplicate(log, "customer", c.Code, svc.Customers.Create(ctx, c)); err != nil {
		return err
	}

	e := employee.NewEmployee("EMP-0001", "Head Pharmacist")
	e.Position = "pharmacist"
	e.Salary = types.MustMoney("2500")
	if err := skipDuplicate(log, "employee", e.Code, svc.Employees.Create(ctx, e)); err != nil {
		return err
	}

	existing, err := svc.Accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(existing) == 0 {
		if _, err := svc.Accounts.Open(ctx, account.OpenInput{
			Name: "Cash drawer", Kind: account.KindCash, OpeningBalance: types.MustMoney("500"),
		}); err != nil {
			return fmt.Errorf("open cash account: %w", err)
		}
		if _, err := svc.Accounts.Open(ctx, account.OpenInput{
			Name: "Operating account", Kind: account.KindBank, BankName: "First Bank",
			OpeningBalance: types.MustMoney("10000"),
		}); err != nil {
			return fmt.Errorf("open bank account: %w", err)
		}
	}

	_, err = svc.Ledger.RegisterSupplier(ctx, supplier_ledger.RegisterInput{
		Code:          "SUP-0001",
		Name:          "MedSupply Wholesale",
		ContactPerson: "Sales desk",
	})
	return skipDuplicate(log, "supplier", "SUP-0001", err)
}

func skipDuplicate(log *logger.Logger, entity, code string, err error) error {
	if err == nil {
		log.Infow("seeded", "entity", entity, "code", code)
		return nil
	}
	if apperror.IsDuplicate(err) {
		log.Infow("already exists", "entity", entity, "code", code)
		return nil
	}
	return fmt.Errorf("seed %s %s: %w", entity, code, err)
}
