package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
)

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens := NewTokens(TokenConfig{Secret: "s3cret"})

	tok, err := tokens.Issue(appctx.UserContext{
		UserID:   "u-42",
		Username: "pharmacist",
		Roles:    []string{RolePharmacist},
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), tok.ExpiresAt, 5*time.Second)

	op, err := tokens.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "u-42", op.UserID)
	assert.Equal(t, "pharmacist", op.Username)
	assert.Equal(t, []string{RolePharmacist}, op.Roles)
}

func TestTokens_RejectsForeignSecret(t *testing.T) {
	tok, err := NewTokens(TokenConfig{Secret: "one"}).Issue(appctx.UserContext{UserID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokens(TokenConfig{Secret: "two"}).Verify(tok.Value)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestTokens_RejectsForeignIssuer(t *testing.T) {
	tok, err := NewTokens(TokenConfig{Secret: "s", Issuer: "till-app"}).Issue(appctx.UserContext{UserID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokens(TokenConfig{Secret: "s"}).Verify(tok.Value)
	assert.Error(t, err)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens(TokenConfig{Secret: "s3cret", TTL: time.Hour})
	issuedAt := time.Now()
	tokens.now = func() time.Time { return issuedAt }

	tok, err := tokens.Issue(appctx.UserContext{UserID: "u-1"})
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = tokens.Verify(tok.Value)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "token expired", appErr.Message)
}

func TestTokens_IssueRequiresUserID(t *testing.T) {
	_, err := NewTokens(TokenConfig{Secret: "s3cret"}).Issue(appctx.UserContext{})
	assert.True(t, apperror.IsValidation(err))
}
