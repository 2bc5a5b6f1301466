// Package tx provides transaction management abstractions.
// Orchestrators depend on Manager, never on a concrete store.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// Implementations: postgres.TxManager (BEGIN/COMMIT/ROLLBACK with savepoints)
// and memory.Store (snapshot and restore).
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error (or panics) every write made through ctx is rolled back.
	// Nested calls reuse the transaction already carried by ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

