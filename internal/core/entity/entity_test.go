package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

func TestCatalog_Validate(t *testing.T) {
	c := NewCatalog(" P-1 ", "  ")
	assert.Equal(t, "P-1", c.Code)
	assert.False(t, id.IsNil(c.ID))

	err := c.Validate(context.Background())
	assert.True(t, apperror.IsValidation(err))

	c.Name = "Paracetamol"
	assert.NoError(t, c.Validate(context.Background()))
}

func TestDocument_Validate(t *testing.T) {
	d := NewDocument("u-1")
	assert.NoError(t, d.Validate(context.Background()))
	assert.Equal(t, "u-1", d.CreatedBy)

	d.Date = time.Time{}
	assert.True(t, apperror.IsValidation(d.Validate(context.Background())))
}

func TestValidateMoney(t *testing.T) {
	assert.NoError(t, ValidateMoney("salary", types.MustMoney("1500.25")))

	err := ValidateMoney("salary", types.MustMoney("1500.00001"))
	if appErr, ok := apperror.AsAppError(err); assert.True(t, ok) {
		assert.Equal(t, "salary", appErr.Details["field"])
	}
}
