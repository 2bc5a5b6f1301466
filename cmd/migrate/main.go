// Package main applies the embedded schema migrations.
//
// Usage:
//
//	migrate up | down | status | version | redo
//	migrate to <YYYYMMDDHHMMSS>
package main

import (
	"context"
	"fmt"
	"os"

	"pharmaledger/internal/config"
	"pharmaledger/internal/infrastructure/storage/postgres/migrate"
	"pharmaledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Development: cfg.App.IsDev()})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if cfg.DB.InMemory() {
		log.Fatalf("%s is required", config.EnvDatabaseURL)
	}

	args := os.Args[1:]
	command := "up"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	db, err := migrate.Open(cfg.DB.URL)
	if err != nil {
		log.Fatalw("failed to open database", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	switch command {
	case "to":
		if len(args) != 1 {
			log.Fatal("usage: migrate to <version>")
		}
		err = migrate.ToVersion(ctx, db, args[0])
	default:
		err = migrate.Run(ctx, db, command, args...)
	}
	if err != nil {
		log.Fatalw("migration failed", "command", command, "error", err)
	}
	log.Infow("migration finished", "command", command)
}
