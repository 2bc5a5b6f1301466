package memory

import (
	"context"
	"maps"

	"pharmaledger/internal/domain/audit"
)

// AuditRepo implements audit.Repository. Inserts bypass transaction
// snapshots, so a rollback never removes an audit row.
type AuditRepo struct{ store *Store }

// Audit returns the audit repository.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{store: s} }

func (r *AuditRepo) Insert(ctx context.Context, e *audit.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := *e
	row.Changes = maps.Clone(e.Changes)

	r.store.auditMu.Lock()
	r.store.audit = append(r.store.audit, row)
	r.store.auditMu.Unlock()
	return nil
}

func (r *AuditRepo) List(ctx context.Context, filter audit.ListFilter) ([]audit.Entry, error) {
	r.store.auditMu.Lock()
	defer r.store.auditMu.Unlock()

	var out []audit.Entry
	for i := len(r.store.audit) - 1; i >= 0; i-- {
		e := r.store.audit[i]
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		if filter.ActorID != "" && e.ActorID != filter.ActorID {
			continue
		}
		out = append(out, e)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

var _ audit.Repository = (*AuditRepo)(nil)
