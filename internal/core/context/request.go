// Package context carries the operator and the request correlation ids
// through a business operation. Orchestrators read the operator to stamp
// documents and audit entries; the logger reads both.
package context

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// SystemActor is the audit actor of work nobody is logged in for: the
// reconcile job, the seed tool, unauthenticated development servers.
const SystemActor = "system"

// UserContext is the authenticated operator (pharmacist, cashier, admin).
type UserContext struct {
	UserID   string
	Username string
	Roles    []string
}

// TraceContext correlates the log lines of one request.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type (
	userKey  struct{}
	traceKey struct{}
)

// WithUser attaches the operator to ctx.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the operator, or nil.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(userKey{}).(*UserContext)
	return u
}

// ActorID is the id written as createdBy and audit actorId.
func ActorID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil && u.UserID != "" {
		return u.UserID
	}
	return SystemActor
}

// HasRole reports whether the operator holds role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	return u != nil && slices.Contains(u.Roles, role)
}

// NewTraceContext keeps requestID when the caller sent one. The trace id
// is taken from the OpenTelemetry span in ctx when there is one, so log
// lines and spans share it.
func NewTraceContext(ctx context.Context, requestID string) *TraceContext {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	traceID := uuid.NewString()
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	return &TraceContext{TraceID: traceID, RequestID: requestID}
}

// WithTrace attaches tc to ctx.
func WithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, tc)
}

// GetTrace returns the trace context, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	t, _ := ctx.Value(traceKey{}).(*TraceContext)
	return t
}

// GetRequestID returns the request id, or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}
