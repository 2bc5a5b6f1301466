package main

import (
	"context"
	"time"

	"pharmaledger/internal/domain/reconcile"
	"pharmaledger/pkg/logger"
	"pharmaledger/pkg/metrics"
)

// Verifier runs one verification pass.
type Verifier interface {
	Run(ctx context.Context) (*reconcile.Report, error)
}

// Worker runs the verifier on a fixed interval.
type Worker struct {
	verifier Verifier
	metrics  *metrics.ReconcileMetrics
	interval time.Duration
	log      *logger.Logger
}

func NewWorker(v Verifier, m *metrics.ReconcileMetrics, interval time.Duration, log *logger.Logger) *Worker {
	return &Worker{
		verifier: v,
		metrics:  m,
		interval: interval,
		log:      log.WithComponent("reconcile"),
	}
}

// RunOnce performs a single pass and records it.
func (w *Worker) RunOnce(ctx context.Context) (*reconcile.Report, error) {
	start := time.Now()
	report, err := w.verifier.Run(ctx)

	violations := 0
	if report != nil {
		violations = len(report.Violations)
	}
	w.metrics.ObserveRun(time.Since(start), violations, err)

	if err != nil {
		w.log.Errorw("reconcile run failed", "error", err)
		return report, err
	}
	for _, v := range report.Violations {
		w.log.Warnw("invariant violated",
			"kind", v.Kind,
			"entity_id", v.EntityID,
			"expected", v.Expected,
			"actual", v.Actual,
		)
	}
	return report, nil
}

// Run passes immediately and then every interval until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	_, _ = w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.RunOnce(ctx)
		}
	}
}
