package domain

import "math/big"

// Strategy names the search strategy that produced a result.
type Strategy string

const (
	StrategyTernary Strategy = "ternary"
	StrategyGrid    Strategy = "grid"
)

// OptimizationResult is the best candidate observed by one optimization run.
type OptimizationResult struct {
	SizeIn        *big.Int
	Profit        *big.Int
	TokenOutAtOpt *big.Int
	WethBackAtOpt *big.Int

	Strategy    Strategy
	Iterations  int // narrowing iterations performed (ternary only)
	Evaluations int // distinct candidates sent to the oracles
}

// NoOpportunity returns the neutral zero result. It is what callers see when
// nothing valid was found or the bounds were unusable; the internal
// sentinel never crosses the API.
func NoOpportunity(strategy Strategy) OptimizationResult {
	return OptimizationResult{
		SizeIn:        new(big.Int),
		Profit:        new(big.Int),
		TokenOutAtOpt: new(big.Int),
		WethBackAtOpt: new(big.Int),
		Strategy:      strategy,
	}
}

// ResultFromTriple converts the winning candidate into a result. A winner
// that is invalid or does not make a strictly positive profit is reported
// as the neutral zero result.
func ResultFromTriple(strategy Strategy, sizeIn *big.Int, t ProfitTriple) OptimizationResult {
	if !t.Valid || t.Profit.Sign() <= 0 {
		return NoOpportunity(strategy)
	}
	return OptimizationResult{
		SizeIn:        new(big.Int).Set(sizeIn),
		Profit:        new(big.Int).Set(t.Profit),
		TokenOutAtOpt: new(big.Int).Set(t.TokenOut),
		WethBackAtOpt: new(big.Int).Set(t.WethBack),
		Strategy:      strategy,
	}
}

// IsNeutral reports whether r is the neutral zero result.
func (r OptimizationResult) IsNeutral() bool {
	return isZero(r.SizeIn) && isZero(r.Profit) && isZero(r.TokenOutAtOpt) && isZero(r.WethBackAtOpt)
}

// Actionable reports whether the result is worth acting on: a non-zero
// size with strictly positive profit. Everything else means "do not act",
// whatever the cause.
func (r OptimizationResult) Actionable() bool {
	return r.SizeIn != nil && r.SizeIn.Sign() > 0 && r.Profit != nil && r.Profit.Sign() > 0
}

func isZero(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}
