// Package audit is the audit log recorder: field-level diffs of mutations,
// written after the business transaction and never allowed to fail it.
package audit

import (
	"time"

	"pharmaledger/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change is one field of an update diff.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Entry is one append-only audit row.
type Entry struct {
	ID         id.ID          `db:"id" json:"id"`
	ActorID    string         `db:"actor_id" json:"actorId"`
	Action     Action         `db:"action" json:"action"`
	EntityType string         `db:"entity_type" json:"entityType"`
	EntityID   string         `db:"entity_id" json:"entityId"`
	EntityName string         `db:"entity_name" json:"entityName,omitempty"`
	Changes    map[string]any `db:"-" json:"changes"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

// ListFilter narrows audit listings. Empty fields match everything.
type ListFilter struct {
	EntityType string
	EntityID   string
	ActorID    string
	Limit      int
	Offset     int
}
