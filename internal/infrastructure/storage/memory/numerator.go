package memory

import (
	"context"
	"time"

	"pharmaledger/internal/core/numerator"
)

// Next implements numerator.Generator with per-key counters that survive
// rollbacks, leaving gaps the same way the Postgres sequence table does.
func (s *Store) Next(ctx context.Context, cfg numerator.Config, period time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := cfg.Key(period)

	s.seqMu.Lock()
	s.sequences[key]++
	n := s.sequences[key]
	s.seqMu.Unlock()

	return cfg.Format(period, n), nil
}

// SetNextNumber overwrites the counter so the next number is value+1.
func (s *Store) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.sequences[cfg.Key(period)] = value
	return nil
}

var (
	_ numerator.Generator = (*Store)(nil)
	_ numerator.Seeder    = (*Store)(nil)
)
