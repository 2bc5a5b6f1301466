package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// DocumentService is the slice of a document orchestrator the HTTP layer uses.
type DocumentService[D, In any] interface {
	Create(ctx context.Context, in In) (D, error)
	GetByID(ctx context.Context, docID id.ID) (D, error)
	List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[D], error)
}

// DocumentHandler provides generic HTTP handlers for documents.
// Documents are immutable: there is no update route.
type DocumentHandler[D any, R interface{ ToInput() In }, In any] struct {
	*BaseHandler
	service DocumentService[D, In]
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler[D any, R interface{ ToInput() In }, In any](
	base *BaseHandler,
	service DocumentService[D, In],
) *DocumentHandler[D, R, In] {
	return &DocumentHandler[D, R, In]{BaseHandler: base, service: service}
}

// List handles GET /{document}.
func (h *DocumentHandler[D, R, In]) List(c *gin.Context) {
	var q dto.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

// Get handles GET /{document}/:id.
func (h *DocumentHandler[D, R, In]) Get(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Create handles POST /{document}.
func (h *DocumentHandler[D, R, In]) Create(c *gin.Context) {
	var req R
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Deleter is implemented by documents that can be reversed and removed.
type Deleter interface {
	Delete(ctx context.Context, docID id.ID) error
}

// DeleteHandler handles DELETE /{document}/:id.
func (h *BaseHandler) DeleteHandler(svc Deleter) gin.HandlerFunc {
	return func(c *gin.Context) {
		docID, ok := h.PathID(c, "id")
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), docID); err != nil {
			h.Error(c, err)
			return
		}
		h.NoContent(c)
	}
}
