// Package postgres holds the PostgreSQL pool, the transaction manager and
// the audit store. Repositories live in the catalog_repo, register_repo and
// document_repo subpackages.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"pharmaledger/internal/config"
	"pharmaledger/pkg/logger"
)

// Pool is the shared connection pool.
type Pool struct {
	*pgxpool.Pool
}

// Open connects a pool sized by cfg and pings it once.
func Open(ctx context.Context, cfg config.DBConfig) (*Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.HealthCheckPeriod = time.Minute
	pc.ConnConfig.RuntimeParams["application_name"] = "pharmaledger"
	pc.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		// Ledger dates are stored as timestamptz and read back in UTC.
		_, err := conn.Exec(ctx, "SET TIME ZONE 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Close is safe on a pool that never opened.
func (p *Pool) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// LogStats writes the pool counters to the log, typically on shutdown.
func (p *Pool) LogStats(ctx context.Context) {
	s := p.Stat()
	logger.Info(ctx, "database pool stats",
		"total", s.TotalConns(),
		"acquired", s.AcquiredConns(),
		"idle", s.IdleConns(),
		"max", s.MaxConns(),
		"acquires", s.AcquireCount(),
		"acquire_wait", s.AcquireDuration(),
	)
}

// Collector exposes the pool counters to Prometheus.
func (p *Pool) Collector() prometheus.Collector {
	return &poolCollector{pool: p.Pool}
}

var (
	poolConnsDesc = prometheus.NewDesc("pharmaledger_db_pool_conns",
		"Connections in the pool by state.", []string{"state"}, nil)
	poolMaxDesc = prometheus.NewDesc("pharmaledger_db_pool_max_conns",
		"Configured pool size.", nil, nil)
	poolAcquiresDesc = prometheus.NewDesc("pharmaledger_db_pool_acquires_total",
		"Successful connection acquires.", nil, nil)
	poolWaitDesc = prometheus.NewDesc("pharmaledger_db_pool_acquire_wait_seconds_total",
		"Time spent waiting for a connection.", nil, nil)
)

type poolCollector struct {
	pool *pgxpool.Pool
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolConnsDesc
	ch <- poolMaxDesc
	ch <- poolAcquiresDesc
	ch <- poolWaitDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(poolConnsDesc, prometheus.GaugeValue, float64(s.AcquiredConns()), "acquired")
	ch <- prometheus.MustNewConstMetric(poolConnsDesc, prometheus.GaugeValue, float64(s.IdleConns()), "idle")
	ch <- prometheus.MustNewConstMetric(poolConnsDesc, prometheus.GaugeValue, float64(s.ConstructingConns()), "constructing")
	ch <- prometheus.MustNewConstMetric(poolMaxDesc, prometheus.GaugeValue, float64(s.MaxConns()))
	ch <- prometheus.MustNewConstMetric(poolAcquiresDesc, prometheus.CounterValue, float64(s.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(poolWaitDesc, prometheus.CounterValue, s.AcquireDuration().Seconds())
}
