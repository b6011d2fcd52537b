// Package app contains the size-search engine: the profit evaluator, the
// run-scoped evaluation cache and the ternary-section and grid optimizers.
package app

import (
	"context"
	"math/big"
)

// QuoteFunc quotes one trade leg: given an input amount it returns the
// output amount obtainable on a venue. A non-positive output is treated
// the same as an error.
type QuoteFunc func(ctx context.Context, amountIn *big.Int) (*big.Int, error)

// CostFunc maps an input amount to the non-negative cost of acting on it,
// in the same unit as profit.
type CostFunc func(ctx context.Context, amountIn *big.Int) (*big.Int, error)

// ConstantCost returns a CostFunc that always reports c. A nil c means zero.
func ConstantCost(c *big.Int) CostFunc {
	fixed := new(big.Int)
	if c != nil {
		fixed.Set(c)
	}
	return func(context.Context, *big.Int) (*big.Int, error) {
		return new(big.Int).Set(fixed), nil
	}
}

// Request describes one optimization run: the domain bounds and the
// oracles driving the profit function. Cost is optional.
type Request struct {
	MinIn *big.Int
	MaxIn *big.Int
	Buy   QuoteFunc
	Sell  QuoteFunc
	Cost  CostFunc
}

// costOrZero normalizes the optional cost model into one function shape.
func (r Request) costOrZero() CostFunc {
	if r.Cost == nil {
		return ConstantCost(nil)
	}
	return r.Cost
}

// validBounds reports whether [minIn, maxIn] is a usable, non-degenerate domain.
func (r Request) validBounds() bool {
	if r.MinIn == nil || r.MaxIn == nil {
		return false
	}
	if r.MinIn.Sign() < 0 || r.MaxIn.Sign() < 0 {
		return false
	}
	return r.MaxIn.Cmp(r.MinIn) > 0
}
