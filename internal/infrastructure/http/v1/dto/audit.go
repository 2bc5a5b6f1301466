package dto

import (
	"pharmaledger/internal/domain/audit"
)

// AuditQuery is the audit log query string.
type AuditQuery struct {
	EntityType string `form:"entityType"`
	EntityID   string `form:"entityId"`
	ActorID    string `form:"actorId"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset     int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query.
func (q AuditQuery) ToFilter() audit.ListFilter {
	return audit.ListFilter{
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		ActorID:    q.ActorID,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
}

// RecordAuditRequest appends a manual audit entry.
// The actor is taken from the authenticated user.
type RecordAuditRequest struct {
	Action     string         `json:"action" binding:"required,oneof=create update delete"`
	EntityType string         `json:"entityType" binding:"required,max=64"`
	EntityID   string         `json:"entityId" binding:"max=64"`
	EntityName string         `json:"entityName" binding:"max=200"`
	Changes    map[string]any `json:"changes"`
}

// ToEntry converts the request.
func (r RecordAuditRequest) ToEntry() audit.Entry {
	return audit.Entry{
		Action:     audit.Action(r.Action),
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		EntityName: r.EntityName,
		Changes:    r.Changes,
	}
}
