package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// quantityExp is the number of fractional digits a Quantity keeps.
const quantityExp = 4

// Quantity counts stock in base units with four fractional digits, held as
// an integer scaled by 10^4. It is stored as BIGINT and travels in JSON
// as a number.
type Quantity int64

var (
	quantityMax = decimal.NewFromInt(math.MaxInt64)
	quantityMin = decimal.NewFromInt(math.MinInt64)
)

// NewQuantity is a whole number of units.
func NewQuantity(units int64) Quantity {
	return Quantity(decimal.NewFromInt(units).Shift(quantityExp).IntPart())
}

// ParseQuantity reads "12", "12.5", ".5" or "-0.25". Digits past the
// fourth decimal place are dropped.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty quantity")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	return quantityOf(d)
}

func quantityOf(d decimal.Decimal) (Quantity, error) {
	scaled := d.Shift(quantityExp).Truncate(0)
	if scaled.GreaterThan(quantityMax) || scaled.LessThan(quantityMin) {
		return 0, fmt.Errorf("quantity %s out of range", d)
	}
	return Quantity(scaled.IntPart()), nil
}

func (q Quantity) IsZero() bool     { return q == 0 }
func (q Quantity) IsPositive() bool { return q > 0 }
func (q Quantity) IsNegative() bool { return q < 0 }
func (q Quantity) Neg() Quantity    { return -q }

// MulInt scales q by n, e.g. packages into base units.
func (q Quantity) MulInt(n int64) Quantity { return q * Quantity(n) }

// ClampZero floors q at zero.
func (q Quantity) ClampZero() Quantity { return max(q, 0) }

// Decimal is q as an exact decimal, for quantity times price.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), -quantityExp)
}

// String always prints four fractional digits.
func (q Quantity) String() string {
	return q.Decimal().StringFixed(quantityExp)
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts a number or a numeric string; null is zero.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*q = 0
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	parsed, err := ParseQuantity(raw)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
