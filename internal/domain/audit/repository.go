package audit

import "context"

// Repository persists audit entries. Entries are never updated or deleted.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error

	// List returns entries newest first.
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
}
