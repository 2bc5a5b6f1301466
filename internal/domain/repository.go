// Package domain holds the catalog contracts shared by the product,
// customer and employee packages.
package domain

import (
	"context"

	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// ListFilter pages through a catalog. Search is a case-insensitive
// substring of name or code.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Normalize applies the default page size and caps it at 500.
func (f ListFilter) Normalize() ListFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultPageSize
	case f.Limit > maxPageSize:
		f.Limit = maxPageSize
	}
	f.Offset = max(f.Offset, 0)
	return f
}

// ListResult is one page and the total match count.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// CatalogEntity is a reference-data record.
type CatalogEntity interface {
	entity.Validatable
	GetID() id.ID
	// DisplayName becomes entityName in audit entries.
	DisplayName() string
	// AuditFields lists the editable fields by JSON name.
	AuditFields() map[string]any
}

// Auditor is the part of audit.Recorder catalogs and registers write to.
type Auditor interface {
	LogCreate(ctx context.Context, entityType string, entityID id.ID, entityName string, payload map[string]any)
	LogUpdate(ctx context.Context, entityType string, entityID id.ID, entityName string, old, changes map[string]any)
}

// CatalogRepository stores one catalog.
type CatalogRepository[T CatalogEntity] interface {
	Create(ctx context.Context, entity T) error
	GetByID(ctx context.Context, id id.ID) (T, error)
	Update(ctx context.Context, entity T) error
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
	Exists(ctx context.Context, id id.ID) (bool, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// Preparer fills defaults on a new record and checks what Validate cannot,
// such as code uniqueness. It runs before the insert.
type Preparer[T any] func(ctx context.Context, entity T) error
