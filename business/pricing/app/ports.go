// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sizing-bot/business/pricing/domain"
)

// Quoter quotes exact-input swaps on a single venue.
type Quoter interface {
	Venue() domain.Venue
	// Quote returns the amount of tokenOut received for amountIn of tokenIn.
	Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error)
}
