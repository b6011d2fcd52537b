// Package domain contains the core domain types for the sizing context.
package domain

import "math/big"

// Sentinel is the numeric stand-in for "evaluation invalid" (-2^255).
// It only exists for callers that need a comparable number; the sizing
// engine itself tracks validity through ProfitTriple.Valid and never
// returns this value.
var Sentinel = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))

// ProfitTriple is the outcome of evaluating one candidate input amount.
type ProfitTriple struct {
	Profit   *big.Int // wethBack - amountIn - cost; only meaningful when Valid
	TokenOut *big.Int // last buy-leg output reached, zero if not reached
	WethBack *big.Int // last sell-leg output reached, zero if not reached
	Valid    bool
}

// NewProfitTriple builds a valid triple. Inputs are copied.
func NewProfitTriple(profit, tokenOut, wethBack *big.Int) ProfitTriple {
	return ProfitTriple{
		Profit:   copyOrZero(profit),
		TokenOut: copyOrZero(tokenOut),
		WethBack: copyOrZero(wethBack),
		Valid:    true,
	}
}

// InvalidTriple builds a sentinel triple keeping whatever intermediate
// quantities were reached. Nil inputs become zero.
func InvalidTriple(tokenOut, wethBack *big.Int) ProfitTriple {
	return ProfitTriple{
		Profit:   new(big.Int).Set(Sentinel),
		TokenOut: copyOrZero(tokenOut),
		WethBack: copyOrZero(wethBack),
	}
}

// Compare orders triples by profit. Every invalid triple sorts below every
// valid one, negative profits included; two invalid triples are equal.
func (t ProfitTriple) Compare(other ProfitTriple) int {
	switch {
	case !t.Valid && !other.Valid:
		return 0
	case !t.Valid:
		return -1
	case !other.Valid:
		return 1
	}
	return t.Profit.Cmp(other.Profit)
}

// Better reports whether t is strictly more profitable than other.
func (t ProfitTriple) Better(other ProfitTriple) bool {
	return t.Compare(other) > 0
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
