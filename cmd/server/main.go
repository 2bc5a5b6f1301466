// Package main is the entry point for the pharmaledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pharmaledger/internal/app"
	"pharmaledger/internal/config"
	"pharmaledger/internal/domain/auth"
	v1 "pharmaledger/internal/infrastructure/http/v1"
	"pharmaledger/internal/infrastructure/http/v1/handlers"
	"pharmaledger/internal/infrastructure/http/v1/middleware"
	"pharmaledger/internal/infrastructure/storage/postgres/migrate"
	"pharmaledger/pkg/logger"
	"pharmaledger/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDev(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting pharmaledger server", "env", cfg.App.Env)

	// --- Storage ---
	var (
		services *app.Services
		db       handlers.Pinger
		backend  *app.PostgresBackend
	)
	if cfg.DB.InMemory() {
		log.Warn("no database configured, using the in-memory store")
		services, _, err = app.NewMemoryServices(cfg.Loyalty.Rule)
		if err != nil {
			log.Fatalw("failed to build services", "error", err)
		}
	} else {
		if cfg.DB.AutoMigrate {
			if err := migrate.Up(ctx, cfg.DB.URL); err != nil {
				log.Fatalw("failed to apply migrations", "error", err)
			}
			log.Info("migrations applied")
		}

		backend, err = app.OpenPostgres(ctx, cfg.DB)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer backend.Close()
		log.Info("database connection established")

		services, err = app.NewPostgresServices(backend, cfg)
		if err != nil {
			log.Fatalw("failed to build services", "error", err)
		}
		db = backend.Pool
	}

	// --- Auth ---
	var tokens middleware.TokenVerifier
	switch {
	case cfg.JWT.Disabled:
		log.Warn("authentication disabled, requests run as the system actor")
	case cfg.JWT.Secret == "":
		log.Warnf("%s not set, requests run as the system actor", config.EnvJWTSecret)
	default:
		tokens = auth.NewTokens(auth.TokenConfig{
			Secret: cfg.JWT.Secret,
			Issuer: cfg.JWT.Issuer,
			TTL:    cfg.JWT.AccessTTL,
		})
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if backend != nil {
		registry.MustRegister(backend.Pool.Collector())
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Services:     services,
		Logger:       log,
		Tokens:       tokens,
		Metrics:      metrics.NewHTTPMetrics(registry),
		Gatherer:     registry,
		DB:           db,
		Debug:        cfg.App.IsDev(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port, "in_memory", cfg.DB.InMemory())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	if backend != nil {
		backend.Pool.LogStats(shutdownCtx)
	}

	log.Info("server stopped")
}
