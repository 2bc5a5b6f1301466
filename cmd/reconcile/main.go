// Command reconcile re-derives account balances, stock floors and supplier
// ledger balances from stored state, on a timer or once.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pharmaledger/internal/app"
	"pharmaledger/internal/config"
	"pharmaledger/pkg/logger"
	"pharmaledger/pkg/metrics"
)

// Exit codes of -once.
const (
	exitViolations = 1
	exitFailed     = 2
)

func main() {
	once := flag.Bool("once", false, "run a single pass; exit 1 on violations, 2 on read failure")
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics on this address")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(exitFailed)
	}
	log, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Development: cfg.App.IsDev()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(exitFailed)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	if cfg.DB.InMemory() {
		log.Fatalf("%s is required", config.EnvDatabaseURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.OpenPostgres(ctx, cfg.DB)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer backend.Close()

	services, err := app.NewPostgresServices(backend, cfg)
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(backend.Pool.Collector())
	worker := NewWorker(services.Reconcile, metrics.NewReconcileMetrics(registry), cfg.Reconcile.Interval, log)

	if *once {
		code := runOnce(ctx, worker)
		backend.Close()
		_ = log.Sync()
		os.Exit(code)
	}

	if *metricsAddr != "" {
		srv := &http.Server{Addr: *metricsAddr, Handler: metrics.Handler(registry), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("metrics server failed", "error", err)
			}
		}()
		defer func() { _ = srv.Shutdown(context.WithoutCancel(ctx)) }()
	}

	log.Infow("reconcile worker started", "interval", cfg.Reconcile.Interval)
	worker.Run(ctx)
	log.Info("reconcile worker stopped")
}

func runOnce(ctx context.Context, w *Worker) int {
	report, err := w.RunOnce(ctx)
	switch {
	case err != nil:
		return exitFailed
	case !report.OK():
		return exitViolations
	}
	return 0
}
