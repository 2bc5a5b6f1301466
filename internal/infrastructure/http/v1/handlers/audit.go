package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// AuditHandler exposes the audit log.
type AuditHandler struct {
	*BaseHandler
	recorder *audit.Recorder
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{BaseHandler: base, recorder: recorder}
}

// List handles GET /audit.
func (h *AuditHandler) List(c *gin.Context) {
	var q dto.AuditQuery
	if !h.BindQuery(c, &q) {
		return
	}
	entries, err := h.recorder.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	h.OK(c, dto.ItemsResponse{Items: entries})
}

// Record handles POST /audit.
func (h *AuditHandler) Record(c *gin.Context) {
	var req dto.RecordAuditRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := h.recorder.Record(c.Request.Context(), req.ToEntry())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entry)
}
