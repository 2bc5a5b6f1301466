package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
)

// TokenVerifier resolves a bearer token to the operator it was issued to.
type TokenVerifier interface {
	Verify(token string) (*appctx.UserContext, error)
}

// Auth requires a bearer token and binds the operator to the request
// context. The operator's id is the actor recorded in the audit trail.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			fail(c, apperror.NewUnauthorized("bearer token required"))
			return
		}

		op, err := verifier.Verify(token)
		if err != nil {
			if _, isApp := apperror.AsAppError(err); !isApp {
				err = apperror.NewUnauthorized("invalid token").WithCause(err)
			}
			fail(c, err)
			return
		}

		bindOperator(c, op)
		c.Next()
	}
}

// Anonymous binds the system actor to every request. It replaces Auth
// when authentication is switched off.
func Anonymous() gin.HandlerFunc {
	system := &appctx.UserContext{UserID: appctx.SystemActor, Username: appctx.SystemActor}
	return func(c *gin.Context) {
		bindOperator(c, system)
		c.Next()
	}
}

// RequireRole lets the request through when the operator holds any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			fail(c, apperror.NewUnauthorized("bearer token required"))
			return
		}
		for _, role := range roles {
			if appctx.HasRole(ctx, role) {
				c.Next()
				return
			}
		}
		fail(c, apperror.NewForbidden("operator lacks the required role").
			WithDetail("roles", roles))
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func bindOperator(c *gin.Context, op *appctx.UserContext) {
	c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), op))
	c.Set("user_id", op.UserID)
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
