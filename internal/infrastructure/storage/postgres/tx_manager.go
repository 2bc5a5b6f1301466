package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pharmaledger/internal/core/tx"
	"pharmaledger/pkg/logger"
)

var tracer = otel.Tracer("pharmaledger/tx")

var _ tx.Manager = (*TxManager)(nil)

const defaultStatementTimeout = 30 * time.Second

// TxManager runs orchestrator units of work on one pool.
//
// The open transaction travels in the context and repositories reach it
// through GetQuerier, so a repository works the same inside and outside a
// transaction. A nested call joins the transaction already in ctx: an
// orchestrator's ledger, account and stock writes commit or roll back
// together. Concurrent writers are serialized by the FOR UPDATE locks the
// repositories take on supplier, account, stock and customer rows.
type TxManager struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
}

// NewTxManager creates a transaction manager with a 30s statement timeout.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool, statementTimeout: defaultStatementTimeout}
}

type txKey struct{}

type txMode struct {
	iso      pgx.TxIsoLevel
	access   pgx.TxAccessMode
	spanName string
}

var (
	writeMode    = txMode{iso: pgx.ReadCommitted, access: pgx.ReadWrite, spanName: "tx.write"}
	snapshotMode = txMode{iso: pgx.RepeatableRead, access: pgx.ReadOnly, spanName: "tx.snapshot"}
)

// RunInTransaction implements tx.Manager.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, writeMode, fn)
}

// Snapshot returns a tx.Manager whose transactions are read-only and see a
// single repeatable-read snapshot. The reconciler reads through it so the
// account, stock and ledger checks agree with one another.
func (m *TxManager) Snapshot() tx.Manager {
	return snapshotManager{m: m}
}

type snapshotManager struct{ m *TxManager }

func (s snapshotManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.m.run(ctx, snapshotMode, fn)
}

func (m *TxManager) run(ctx context.Context, mode txMode, fn func(ctx context.Context) error) error {
	if m.Current(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, mode.spanName, trace.WithAttributes(
		attribute.String("db.tx.isolation", string(mode.iso)),
		attribute.String("db.tx.access", string(mode.access)),
	))
	defer span.End()

	start := time.Now()
	err := m.begin(ctx, mode, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		return err
	}
	logger.Debug(ctx, "transaction committed", "mode", mode.spanName, "elapsed", time.Since(start))
	return nil
}

func (m *TxManager) begin(ctx context.Context, mode txMode, fn func(ctx context.Context) error) (err error) {
	pgtx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: mode.iso, AccessMode: mode.access})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Rollback must still reach the server after the caller's ctx is cancelled.
	rollback := func(cause any) {
		if rbErr := pgtx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "cause", cause)
		}
	}
	defer func() {
		if p := recover(); p != nil {
			rollback(p)
			panic(p)
		}
	}()

	if m.statementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", m.statementTimeout.Milliseconds())
		if _, err := pgtx.Exec(ctx, stmt); err != nil {
			rollback(err)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	if err := fn(context.WithValue(ctx, txKey{}, pgtx)); err != nil {
		rollback(err)
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Current returns the transaction carried by ctx, or nil.
func (m *TxManager) Current(ctx context.Context) pgx.Tx {
	if t, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return t
	}
	return nil
}

// Querier is satisfied by both pgx.Tx and *pgxpool.Pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the transaction carried by ctx, or the pool.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.Current(ctx); t != nil {
		return t
	}
	return m.pool
}

// CopyFrom bulk-loads document lines with the COPY protocol. It only runs
// inside a transaction so a failed document leaves no orphan lines.
func (m *TxManager) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	t := m.Current(ctx)
	if t == nil {
		return 0, fmt.Errorf("copy into %s requires a transaction", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}
