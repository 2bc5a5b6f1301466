// Package numerator draws document numbers from the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"pharmaledger/internal/core/numerator"
)

// Strategy selects how counters are advanced.
type Strategy int

const (
	// StrategyStrict advances the counter once per number. Drawn inside the
	// document's transaction, numbers have no gaps.
	StrategyStrict Strategy = iota

	// StrategyCached reserves a block of numbers per round trip and hands
	// them out from memory. A restart abandons the rest of the block.
	StrategyCached
)

// Querier runs the single-row statements the service issues.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Options configures a Service.
type Options struct {
	Strategy Strategy

	// RangeSize is the StrategyCached block size; 50 when unset.
	RangeSize int64

	// Scoped returns the querier of the transaction in ctx, if any. Strict
	// numbering draws through it so a rolled back document returns its
	// number. Cached blocks always come from the pool.
	Scoped func(ctx context.Context) Querier
}

const upsertPrefix = "INSERT INTO sys_sequences (key, current_val) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET current_val = "

var (
	advanceSQL = upsertPrefix + "sys_sequences.current_val + EXCLUDED.current_val RETURNING current_val"
	resetSQL   = upsertPrefix + "EXCLUDED.current_val RETURNING current_val"
)

type block struct{ next, last int64 }

// Service implements numerator.Generator and numerator.Seeder.
type Service struct {
	pool Querier
	opts Options

	mu     sync.Mutex
	blocks map[string]*block
}

// New creates a service drawing from pool.
func New(pool Querier, opts Options) *Service {
	if opts.RangeSize <= 0 {
		opts.RangeSize = 50
	}
	return &Service{pool: pool, opts: opts, blocks: make(map[string]*block)}
}

// Next renders the next number of cfg's sequence for period.
func (s *Service) Next(ctx context.Context, cfg numerator.Config, period time.Time) (string, error) {
	key := cfg.Key(period)

	var (
		n   int64
		err error
	)
	if s.opts.Strategy == StrategyCached {
		n, err = s.fromBlock(ctx, key)
	} else {
		n, err = s.upsert(ctx, s.scoped(ctx), advanceSQL, key, 1)
	}
	if err != nil {
		return "", err
	}
	return cfg.Format(period, n), nil
}

func (s *Service) scoped(ctx context.Context) Querier {
	if s.opts.Scoped != nil {
		if q := s.opts.Scoped(ctx); q != nil {
			return q
		}
	}
	return s.pool
}

func (s *Service) upsert(ctx context.Context, q Querier, stmt, key string, n int64) (int64, error) {
	var v int64
	if err := q.QueryRow(ctx, stmt, key, n).Scan(&v); err != nil {
		return 0, fmt.Errorf("sequence %s: %w", key, err)
	}
	return v, nil
}

func (s *Service) fromBlock(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.blocks[key]
	if b == nil || b.next > b.last {
		last, err := s.upsert(ctx, s.pool, advanceSQL, key, s.opts.RangeSize)
		if err != nil {
			return 0, err
		}
		b = &block{next: last - s.opts.RangeSize + 1, last: last}
		s.blocks[key] = b
	}
	n := b.next
	b.next++
	return n, nil
}

// SetNextNumber makes value+1 the next number, for imports of documents
// that already carry numbers. Any cached block for the key is dropped.
func (s *Service) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	key := cfg.Key(period)
	_, err := s.upsert(ctx, s.scoped(ctx), resetSQL, key, value)

	s.mu.Lock()
	delete(s.blocks, key)
	s.mu.Unlock()
	return err
}

var (
	_ numerator.Generator = (*Service)(nil)
	_ numerator.Seeder    = (*Service)(nil)
)
