package v1

import (
	"github.com/gin-gonic/gin"
)

// resource is the read and create surface shared by catalog and document
// handlers.
type resource interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
}

type updater interface {
	Update(c *gin.Context)
}

// mount registers a resource under group. PUT /:id is added when the
// handler can update; documents cannot, they are only created and deleted.
func mount(group *gin.RouterGroup, h resource) *gin.RouterGroup {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	if u, ok := h.(updater); ok {
		group.PUT("/:id", u.Update)
	}
	return group
}
