package audit

import (
	"context"
	"fmt"
	"time"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/pkg/logger"
)

// Recorder writes audit entries.
//
// LogCreate, LogUpdate and LogDelete are best-effort: a failed write (error,
// panic or timeout) is logged and swallowed. Callers invoke them after their
// transaction has committed.
type Recorder struct {
	repo    Repository
	timeout time.Duration
	now     func() time.Time
}

// NewRecorder creates a recorder. Each best-effort write is bounded by timeout.
func NewRecorder(repo Repository, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{
		repo:    repo,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record appends an explicit entry and reports failures to the caller.
func (r *Recorder) Record(ctx context.Context, e Entry) (*Entry, error) {
	if e.EntityType == "" {
		return nil, apperror.NewRequired("entityType")
	}
	switch e.Action {
	case ActionCreate, ActionUpdate, ActionDelete:
	default:
		return nil, apperror.NewValidation("action must be create, update or delete").
			WithDetail("field", "action")
	}

	r.fill(ctx, &e)
	if err := r.repo.Insert(ctx, &e); err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}
	return &e, nil
}

// List returns entries newest first.
func (r *Recorder) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return r.repo.List(ctx, filter)
}

// LogCreate records a creation with a fixed payload.
func (r *Recorder) LogCreate(ctx context.Context, entityType string, entityID id.ID, entityName string, payload map[string]any) {
	r.safeInsert(ctx, Entry{
		Action:     ActionCreate,
		EntityType: entityType,
		EntityID:   entityID.String(),
		EntityName: entityName,
		Changes:    payload,
	})
}

// LogUpdate records the diff between old and the keys present in changes.
// Nothing is written when no key changed.
func (r *Recorder) LogUpdate(ctx context.Context, entityType string, entityID id.ID, entityName string, old, changes map[string]any) {
	diff := Diff(old, changes)
	if len(diff) == 0 {
		return
	}
	r.safeInsert(ctx, Entry{
		Action:     ActionUpdate,
		EntityType: entityType,
		EntityID:   entityID.String(),
		EntityName: entityName,
		Changes:    diff,
	})
}

// LogDelete records a deletion with a fixed payload.
func (r *Recorder) LogDelete(ctx context.Context, entityType string, entityID id.ID, entityName string, payload map[string]any) {
	r.safeInsert(ctx, Entry{
		Action:     ActionDelete,
		EntityType: entityType,
		EntityID:   entityID.String(),
		EntityName: entityName,
		Changes:    payload,
	})
}

func (r *Recorder) fill(ctx context.Context, e *Entry) {
	if id.IsNil(e.ID) {
		e.ID = id.New()
	}
	if e.ActorID == "" {
		e.ActorID = appctx.ActorID(ctx)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	if e.Changes == nil {
		e.Changes = map[string]any{}
	}
}

func (r *Recorder) safeInsert(ctx context.Context, e Entry) {
	r.fill(ctx, &e)

	// The request may be cancelled right after the business commit;
	// the audit write still gets its own deadline.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "audit write panicked",
				"entity_type", e.EntityType,
				"entity_id", e.EntityID,
				"action", e.Action,
				"panic", fmt.Sprint(p),
			)
		}
	}()

	if err := r.repo.Insert(writeCtx, &e); err != nil {
		logger.Error(ctx, "audit write failed",
			"entity_type", e.EntityType,
			"entity_id", e.EntityID,
			"action", e.Action,
			"error", err,
		)
	}
}
