package domain

import (
	"context"
	"fmt"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/pkg/logger"
)

// CatalogService creates, reads and updates one catalog and writes its
// audit trail. Audit entries are written after the commit.
type CatalogService[T CatalogEntity] struct {
	kind    string
	repo    CatalogRepository[T]
	txm     tx.Manager
	auditor Auditor
	prepare []Preparer[T]
}

// NewCatalogService serves the catalog of kind, which doubles as the audit
// entityType. auditor may be nil.
func NewCatalogService[T CatalogEntity](kind string, repo CatalogRepository[T], txm tx.Manager, auditor Auditor) *CatalogService[T] {
	return &CatalogService[T]{kind: kind, repo: repo, txm: txm, auditor: auditor}
}

// BeforeCreate adds a preparation step. Steps run in order inside the
// create transaction.
func (s *CatalogService[T]) BeforeCreate(p Preparer[T]) {
	s.prepare = append(s.prepare, p)
}

func (s *CatalogService[T]) validate(ctx context.Context, e T) error {
	err := e.Validate(ctx)
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

// lookupErr names the catalog in not-found errors and hides storage errors.
func (s *CatalogService[T]) lookupErr(err error, entityID id.ID) error {
	switch {
	case apperror.IsNotFound(err):
		return apperror.NewNotFound(s.kind, entityID.String())
	case apperror.IsAppError(err):
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.kind).WithDetail("id", entityID.String())
}

// Create validates, prepares and inserts e.
func (s *CatalogService[T]) Create(ctx context.Context, e T) error {
	if err := s.validate(ctx, e); err != nil {
		return err
	}
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, prepare := range s.prepare {
			if err := prepare(ctx, e); err != nil {
				return err
			}
		}
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.kind, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.auditor != nil {
		s.auditor.LogCreate(ctx, s.kind, e.GetID(), e.DisplayName(), e.AuditFields())
	}
	logger.Debug(ctx, "catalog record created", "entity", s.kind, "id", e.GetID())
	return nil
}

func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.lookupErr(err, entityID)
	}
	return e, nil
}

// Update loads the record, applies mutate, validates and stores it. The
// audit entry records only the fields mutate changed.
func (s *CatalogService[T]) Update(ctx context.Context, entityID id.ID, mutate func(T) error) (T, error) {
	var (
		saved  T
		before map[string]any
	)
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, entityID)
		if err != nil {
			return s.lookupErr(err, entityID)
		}
		before = e.AuditFields()

		if err := mutate(e); err != nil {
			return err
		}
		if err := s.validate(ctx, e); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.kind, err)
		}
		saved = e
		return nil
	})
	if err != nil {
		return saved, err
	}

	if s.auditor != nil {
		s.auditor.LogUpdate(ctx, s.kind, saved.GetID(), saved.DisplayName(), before, saved.AuditFields())
	}
	return saved, nil
}

// List normalizes filter and returns one page.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter.Normalize())
}
