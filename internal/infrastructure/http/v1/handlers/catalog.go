package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/domain"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// CreateRequest is a request body that builds a new catalog entity.
type CreateRequest[T any] interface {
	ToEntity() T
}

// UpdateRequest is a request body that patches an existing catalog entity.
type UpdateRequest[T any] interface {
	Apply(T) error
}

// CatalogHandler provides generic HTTP handlers for catalog entities.
type CatalogHandler[T domain.CatalogEntity, C CreateRequest[T], U UpdateRequest[T]] struct {
	*BaseHandler
	service *domain.CatalogService[T]
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T domain.CatalogEntity, C CreateRequest[T], U UpdateRequest[T]](
	base *BaseHandler,
	service *domain.CatalogService[T],
) *CatalogHandler[T, C, U] {
	return &CatalogHandler[T, C, U]{BaseHandler: base, service: service}
}

// List handles GET /{entity}.
func (h *CatalogHandler[T, C, U]) List(c *gin.Context) {
	var q dto.ListQuery
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

// Get handles GET /{entity}/:id.
func (h *CatalogHandler[T, C, U]) Get(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	entity, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entity)
}

// Create handles POST /{entity}.
func (h *CatalogHandler[T, C, U]) Create(c *gin.Context) {
	var req C
	if !h.BindJSON(c, &req) {
		return
	}

	entity := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), entity); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entity)
}

// Update handles PUT /{entity}/:id. Only fields present in the body change.
func (h *CatalogHandler[T, C, U]) Update(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req U
	if !h.BindJSON(c, &req) {
		return
	}

	entity, err := h.service.Update(c.Request.Context(), entityID, req.Apply)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entity)
}
