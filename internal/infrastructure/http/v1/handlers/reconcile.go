package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/domain/reconcile"
)

// ReconcileHandler runs the invariant verifier on demand.
type ReconcileHandler struct {
	*BaseHandler
	verifier *reconcile.Verifier
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(base *BaseHandler, verifier *reconcile.Verifier) *ReconcileHandler {
	return &ReconcileHandler{BaseHandler: base, verifier: verifier}
}

// Run handles POST /reconcile. Violations are reported in the body with
// status 200; only read failures are errors.
func (h *ReconcileHandler) Run(c *gin.Context) {
	report, err := h.verifier.Run(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if report.Violations == nil {
		report.Violations = []reconcile.Violation{}
	}
	h.OK(c, gin.H{
		"ok":     report.OK(),
		"report": report,
	})
}
