package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/pkg/logger"
)

// problem is the error body every endpoint returns.
type problem struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Status    int            `json:"status"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

// ErrorHandler renders the last error a handler recorded with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if last := c.Errors.Last(); last != nil && !c.Writer.Written() {
			renderError(c, last.Err)
		}
	}
}

// renderError writes err as a problem body. Errors that are not
// AppErrors, and any 5xx, are logged and reduced to a generic 500.
func renderError(c *gin.Context, err error) {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		appErr = apperror.NewInternal(err)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError || appErr.Err != nil {
		logger.Error(c.Request.Context(), "request failed",
			"code", appErr.Code,
			"status", status,
			"error", err,
		)
	}

	c.AbortWithStatusJSON(status, problem{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Status:    status,
		Details:   appErr.Details,
		RequestID: c.GetString("request_id"),
	})
}
