package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/types"
)

func TestPointsEarned_DefaultRule(t *testing.T) {
	c := MustCalculator("")
	assert.Equal(t, DefaultRule, c.Rule())

	tests := []struct {
		amount string
		want   int64
	}{
		{"97", 9},
		{"100", 10},
		{"9.99", 0},
		{"0", 0},
		{"-50", 0},
		{"1234.56", 123},
		{"9.99999999999999999", 0},
		{"19.99999999999999999", 1},
		{"10", 1},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := c.PointsEarned(types.MustMoney(tt.amount))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplySale_CustomerWithTwentyPoints(t *testing.T) {
	c := MustCalculator(DefaultRule)

	res, err := c.ApplySale(20, 0, types.MustMoney("97"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.Earned)
	assert.Equal(t, int64(29), res.Final)
}

func TestApplySale_RedemptionNeverGoesNegative(t *testing.T) {
	c := MustCalculator(DefaultRule)

	res, err := c.ApplySale(5, 30, types.MustMoney("40"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Earned)
	assert.Equal(t, int64(0), res.Final)
}

func TestApplyReturn(t *testing.T) {
	c := MustCalculator(DefaultRule)

	res, err := c.ApplyReturn(29, types.MustMoney("40"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Deducted)
	assert.Equal(t, int64(25), res.Final)

	res, err = c.ApplyReturn(2, types.MustMoney("97"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Final)
}

func TestNewCalculator_CustomRule(t *testing.T) {
	c, err := NewCalculator("amount >= 100.0 ? int(amount / 5.0) : int(amount / 10.0)")
	require.NoError(t, err)

	got, err := c.PointsEarned(types.MustMoney("200"))
	require.NoError(t, err)
	assert.Equal(t, int64(40), got)

	got, err = c.PointsEarned(types.MustMoney("50"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)
}

func TestNewCalculator_UnitsRule(t *testing.T) {
	c := MustCalculator("units >= 100 ? units / 5 : units / 10")

	got, err := c.PointsEarned(types.MustMoney("99.99999999999999999"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), got)

	got, err = c.PointsEarned(types.MustMoney("100"))
	require.NoError(t, err)
	assert.Equal(t, int64(20), got)
}

func TestPointsEarned_AmountOutOfRange(t *testing.T) {
	c := MustCalculator("")

	_, err := c.PointsEarned(types.MustMoney("99999999999999999999999"))
	assert.ErrorContains(t, err, "out of range")
}

func TestNewCalculator_RejectsBadRules(t *testing.T) {
	_, err := NewCalculator("amount / 10.0")
	assert.ErrorContains(t, err, "must return int")

	_, err = NewCalculator("int(price)")
	assert.Error(t, err)
}

func TestRedemptionValue(t *testing.T) {
	assert.True(t, types.MustMoney("15").Equal(RedemptionValue(15)))
}
