// Package auth issues and verifies the operator tokens carried as bearer
// credentials. The token subject becomes the actorId of every audit entry
// the request writes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
)

// Operator roles.
const (
	// RoleAdmin may adjust stock by hand, write manual audit entries and
	// trigger reconciliation.
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
	RoleCashier    = "cashier"
)

// TokenConfig configures signing and verification.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type claims struct {
	jwt.RegisteredClaims
	Username string   `json:"name,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Token is a signed bearer token.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Tokens signs and verifies HS256 operator tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token service. An empty issuer selects
// "pharmaledger"; a zero TTL selects 12 hours, one pharmacy shift.
func NewTokens(cfg TokenConfig) *Tokens {
	if cfg.Issuer == "" {
		cfg.Issuer = "pharmaledger"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &Tokens{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.TTL, now: time.Now}
}

// Issue signs a token for op.
func (t *Tokens) Issue(op appctx.UserContext) (Token, error) {
	if op.UserID == "" {
		return Token{}, apperror.NewRequired("userId")
	}
	now := t.now()
	expires := now.Add(t.ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   op.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Username: op.Username,
		Roles:    op.Roles,
	}).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expires}, nil
}

// Verify checks signature, issuer and expiry and returns the operator.
// Failures are Unauthorized application errors.
func (t *Tokens) Verify(raw string) (*appctx.UserContext, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperror.NewUnauthorized("token expired").WithCause(err)
	case err != nil:
		return nil, apperror.NewUnauthorized("invalid token").WithCause(err)
	case c.Subject == "":
		return nil, apperror.NewUnauthorized("token has no subject")
	}

	return &appctx.UserContext{
		UserID:   c.Subject,
		Username: c.Username,
		Roles:    c.Roles,
	}, nil
}
