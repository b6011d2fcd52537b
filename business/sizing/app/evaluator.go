package app

import (
	"context"
	"math/big"

	"github.com/fd1az/sizing-bot/business/sizing/domain"
)

// Evaluator combines a buy quote, a sell quote and a cost model into a
// signed profit for one candidate amount. It is safe for concurrent use
// as long as the oracles are.
type Evaluator struct {
	buy  QuoteFunc
	sell QuoteFunc
	cost CostFunc
}

// NewEvaluator creates an Evaluator. A nil cost means zero cost.
func NewEvaluator(buy, sell QuoteFunc, cost CostFunc) *Evaluator {
	if cost == nil {
		cost = ConstantCost(nil)
	}
	return &Evaluator{buy: buy, sell: sell, cost: cost}
}

// Evaluate never fails: every oracle failure, invalid output or panic is
// folded into an invalid triple carrying the quantities reached so far.
func (e *Evaluator) Evaluate(ctx context.Context, amountIn *big.Int) (triple domain.ProfitTriple) {
	defer func() {
		if r := recover(); r != nil {
			triple = domain.InvalidTriple(nil, nil)
		}
	}()

	if amountIn == nil || amountIn.Sign() < 0 {
		return domain.InvalidTriple(nil, nil)
	}

	tokenOut, err := e.buy(ctx, new(big.Int).Set(amountIn))
	if err != nil || !positive(tokenOut) {
		return domain.InvalidTriple(nil, nil)
	}
	tokenOut = new(big.Int).Set(tokenOut)

	wethBack, err := e.sell(ctx, new(big.Int).Set(tokenOut))
	if err != nil || !positive(wethBack) {
		return domain.InvalidTriple(tokenOut, nil)
	}
	wethBack = new(big.Int).Set(wethBack)

	// A cost model that errors voids the legs too; one that answers with an
	// unusable cost keeps them.
	gas, err := e.cost(ctx, new(big.Int).Set(amountIn))
	if err != nil {
		return domain.InvalidTriple(nil, nil)
	}
	if gas == nil || gas.Sign() < 0 {
		return domain.InvalidTriple(tokenOut, wethBack)
	}

	profit := new(big.Int).Sub(wethBack, amountIn)
	profit.Sub(profit, gas)

	return domain.NewProfitTriple(profit, tokenOut, wethBack)
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
