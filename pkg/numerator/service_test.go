package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

// mockQuerier simulates sys_sequences: one counter per key.
type mockQuerier struct {
	mu      sync.Mutex
	values  map[string]int64
	calls   int
	err     error
	lastSQL string
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	m.lastSQL = sql
	key := args[0].(string)
	n := args[1].(int64)
	if strings.Contains(sql, "sys_sequences.current_val + EXCLUDED") {
		m.values[key] += n
	} else {
		m.values[key] = n
	}
	return &mockRow{val: m.values[key]}
}

var period = time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)

func TestNext_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, Options{})
	ctx := context.Background()
	cfg := numerator.DefaultConfig(numerator.PrefixSale)

	num, err := svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "SL-2026-00001", num)

	num, err = svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "SL-2026-00002", num)
	assert.Equal(t, 2, q.calls)
}

func TestNext_CachedReservesRanges(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, Options{Strategy: StrategyCached, RangeSize: 10})
	ctx := context.Background()
	cfg := numerator.DefaultConfig(numerator.PrefixPurchase)

	num, err := svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "PU-2026-00001", num)
	assert.Equal(t, int64(10), q.values["PU_2026"])

	for i := 0; i < 9; i++ {
		_, err = svc.Next(ctx, cfg, period)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, q.calls, "range served from memory")

	num, err = svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "PU-2026-00011", num)
	assert.Equal(t, int64(20), q.values["PU_2026"])
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, Options{Strategy: StrategyCached, RangeSize: 10})
	ctx := context.Background()
	cfg := numerator.DefaultConfig(numerator.PrefixSalesReturn)

	_, err := svc.Next(ctx, cfg, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, period, 100))

	num, err := svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "SR-2026-00101", num)
}

func TestNext_PropagatesQueryError(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection refused")
	svc := New(q, Options{})

	_, err := svc.Next(context.Background(), numerator.DefaultConfig("SL"), period)
	assert.ErrorContains(t, err, "connection refused")
}

func TestNext_StrictDrawsInsideTransaction(t *testing.T) {
	pool, txQuerier := newMockQuerier(), newMockQuerier()
	type txKey struct{}
	svc := New(pool, Options{Scoped: func(ctx context.Context) Querier {
		if ctx.Value(txKey{}) != nil {
			return txQuerier
		}
		return nil
	}})
	cfg := numerator.DefaultConfig(numerator.PrefixDamagedItem)

	num, err := svc.Next(context.WithValue(context.Background(), txKey{}, true), cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "DM-2026-00001", num)
	assert.Equal(t, 1, txQuerier.calls)
	assert.Zero(t, pool.calls)

	_, err = svc.Next(context.Background(), cfg, period)
	require.NoError(t, err)
	assert.Equal(t, 1, pool.calls)
}

func TestNext_CachedIgnoresTransaction(t *testing.T) {
	pool, txQuerier := newMockQuerier(), newMockQuerier()
	svc := New(pool, Options{
		Strategy: StrategyCached,
		Scoped:   func(context.Context) Querier { return txQuerier },
	})

	_, err := svc.Next(context.Background(), numerator.DefaultConfig(numerator.PrefixSale), period)
	require.NoError(t, err)
	assert.Equal(t, 1, pool.calls)
	assert.Zero(t, txQuerier.calls)
	assert.Contains(t, pool.lastSQL, "RETURNING current_val")
}
