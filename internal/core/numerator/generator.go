// Package numerator provides the contract for document auto-numbering.
// Implementations: pkg/numerator (sys_sequences) and the in-memory store.
package numerator

import (
	"context"
	"fmt"
	"time"
)

// Document number prefixes.
const (
	PrefixSale           = "SL"
	PrefixPurchase       = "PU"
	PrefixSalesReturn    = "SR"
	PrefixPurchaseReturn = "PR"
	PrefixSupplierPay    = "SP"
	PrefixDamagedItem    = "DM"
	PrefixSalaryPayment  = "SA"
)

// Generator generates sequential document numbers.
type Generator interface {
	// Next returns the next number for cfg in the given period.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., SL-2026-00001)
	Next(ctx context.Context, cfg Config, period time.Time) (string, error)
}

// Seeder moves a sequence forward, e.g. after importing documents that
// already carry numbers.
type Seeder interface {
	// SetNextNumber makes the next number drawn for cfg in period value+1.
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "SL", "PU")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns yearly numbering with 5 digits.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// Key returns the sequence key the counter is stored under.
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders the n-th number of the sequence.
func (c Config) Format(period time.Time, n int64) string {
	pad := c.PadWidth
	if pad == 0 {
		pad = 5
	}
	if c.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format("2006"), pad, n)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, pad, n)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, cfg Config, period time.Time) (string, error)

func (f Func) Next(ctx context.Context, cfg Config, period time.Time) (string, error) {
	return f(ctx, cfg, period)
}
