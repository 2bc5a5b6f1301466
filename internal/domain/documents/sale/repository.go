package sale

import (
	"context"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
)

// Repository defines persistence for sales.
type Repository interface {
	// Create inserts the header and its items.
	Create(ctx context.Context, s *Sale) error

	// GetByID returns the sale with items, or apperror NotFound.
	GetByID(ctx context.Context, id id.ID) (*Sale, error)

	// GetForUpdate is GetByID with the header row locked.
	GetForUpdate(ctx context.Context, id id.ID) (*Sale, error)

	UpdateStatus(ctx context.Context, id id.ID, status Status) error

	// List returns headers without items, newest first.
	List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Sale], error)
}
