// Package middleware holds the gin middleware chain of the API.
package middleware

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/pkg/logger"
)

// Recovery renders a handler panic as a 500 problem document and logs the
// stack. Broken client connections are left to gin.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "panic recovered",
			"panic", recovered,
			"route", c.FullPath(),
			"stack", string(debug.Stack()),
		)
		appErr := apperror.NewInternal(fmt.Errorf("panic: %v", recovered))
		_ = c.Error(appErr)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		renderError(c, appErr)
	})
}
