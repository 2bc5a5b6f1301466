// Package loyalty derives loyalty points from sale and return totals.
//
// The earning rule is a CEL expression that must evaluate to an int. It sees
// `units`, the whole currency units of the amount actually charged, and
// `amount`, the same amount as a double. Only `units` is exact; the default
// rule gives one point per 10 units and uses it alone.
package loyalty

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/types"
)

// DefaultRule is floor(amount / 10) for non-negative amounts. Integer
// division of the whole units gives the same result without going through
// a float.
const DefaultRule = "units / 10"

// Calculator evaluates the compiled earning rule.
type Calculator struct {
	rule string
	prg  cel.Program
}

// NewCalculator compiles rule once; an empty rule means DefaultRule.
func NewCalculator(rule string) (*Calculator, error) {
	if rule == "" {
		rule = DefaultRule
	}

	env, err := cel.NewEnv(
		cel.Variable("units", cel.IntType),
		cel.Variable("amount", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("loyalty env: %w", err)
	}

	ast, iss := env.Compile(rule)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile loyalty rule %q: %w", rule, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.IntType) {
		return nil, fmt.Errorf("loyalty rule %q must return int, got %s", rule, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("loyalty program: %w", err)
	}

	return &Calculator{rule: rule, prg: prg}, nil
}

// MustCalculator is NewCalculator that panics on error. Use for constants and tests.
func MustCalculator(rule string) *Calculator {
	c, err := NewCalculator(rule)
	if err != nil {
		panic(err)
	}
	return c
}

// Rule returns the expression in effect.
func (c *Calculator) Rule() string { return c.rule }

// PointsEarned returns the points for a charged amount; never negative.
func (c *Calculator) PointsEarned(amount types.Money) (int64, error) {
	if !amount.IsPositive() {
		return 0, nil
	}

	units := amount.Floor()
	if !units.BigInt().IsInt64() {
		return 0, fmt.Errorf("loyalty amount %s out of range", amount)
	}

	out, _, err := c.prg.Eval(map[string]any{
		"units":  units.IntPart(),
		"amount": amount.InexactFloat64(),
	})
	if err != nil {
		return 0, fmt.Errorf("evaluate loyalty rule: %w", err)
	}
	points, ok := out.Value().(int64)
	if !ok {
		return 0, fmt.Errorf("loyalty rule returned %T", out.Value())
	}
	return max(points, 0), nil
}

// SaleResult is the loyalty outcome of one sale.
type SaleResult struct {
	Earned int64
	Final  int64
}

// ApplySale computes max(0, current - redeemed + earned). finalAmount must
// already be net of the redemption discount.
func (c *Calculator) ApplySale(current, redeemed int64, finalAmount types.Money) (SaleResult, error) {
	earned, err := c.PointsEarned(finalAmount)
	if err != nil {
		return SaleResult{}, err
	}
	return SaleResult{
		Earned: earned,
		Final:  max(current-redeemed+earned, 0),
	}, nil
}

// ReturnResult is the loyalty outcome of one sales return.
type ReturnResult struct {
	Deducted int64
	Final    int64
}

// ApplyReturn takes back the points the returned amount would have earned.
// Points redeemed on the original sale are not restored.
func (c *Calculator) ApplyReturn(current int64, returnTotal types.Money) (ReturnResult, error) {
	deducted, err := c.PointsEarned(returnTotal)
	if err != nil {
		return ReturnResult{}, err
	}
	return ReturnResult{
		Deducted: deducted,
		Final:    max(current-deducted, 0),
	}, nil
}

// RedemptionValue converts redeemed points to money: one point is one currency unit.
func RedemptionValue(points int64) types.Money {
	return decimal.NewFromInt(points)
}
