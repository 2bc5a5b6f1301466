// Package types holds the money and quantity values every ledger uses.
package types

import "github.com/shopspring/decimal"

// Money is an exact decimal amount. Balances, totals and ledger rows are
// all Money; floats never touch them.
type Money = decimal.Decimal

// MustMoney parses s and panics on failure. Constants and tests only.
func MustMoney(s string) Money { return decimal.RequireFromString(s) }

func Zero() Money { return decimal.Zero }

// MoneyScale is the number of decimal places money is stored with.
const MoneyScale = 4

// moneyLimit bounds the integer part of NUMERIC(18,4) columns.
var moneyLimit = decimal.New(1, 18-MoneyScale)

// FitsStorage reports whether m is stored without rounding: at most
// MoneyScale decimal places and fewer than 14 integer digits.
func FitsStorage(m Money) bool {
	return m.Equal(m.Truncate(MoneyScale)) && m.Abs().LessThan(moneyLimit)
}

// FloorZero clamps m at zero. Reversals use it so aggregate counters
// never turn negative.
func FloorZero(m Money) Money { return decimal.Max(m, decimal.Zero) }
