package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the database answers. *pgxpool.Pool implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler takes a nil db when running on the in-memory store.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) storage() string {
	if h.db == nil {
		return "memory"
	}
	return "postgres"
}

// Live answers GET /health/live while the process runs.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready answers GET /health/ready: 200 when the store is reachable,
// 503 otherwise.
func (h *HealthHandler) Ready(c *gin.Context) {
	body := gin.H{"status": "ok", "storage": h.storage()}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			body["status"] = "unavailable"
			body["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}
