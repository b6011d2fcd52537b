// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/fd1az/sizing-bot/internal/asset"
)

var gweiUnit = big.NewInt(1_000_000_000)

// GasPrice is an EIP-1559 fee snapshot used to price one transaction.
type GasPrice struct {
	BaseFee     *big.Int
	Tip         *big.Int
	MaxFee      *big.Int
	BlockNumber uint64
	// Fallback is set when the fee could not be read from the chain.
	Fallback  bool
	Timestamp time.Time
}

// NewGasPrice derives the max fee from base and tip.
func NewGasPrice(baseFee, tip *big.Int, blockNumber uint64) *GasPrice {
	return &GasPrice{
		BaseFee:     copyOrZero(baseFee),
		Tip:         copyOrZero(tip),
		MaxFee:      ComputeMaxFee(baseFee, tip),
		BlockNumber: blockNumber,
		Timestamp:   time.Now(),
	}
}

// FallbackGasPrice builds a snapshot from fixed settings.
func FallbackGasPrice(maxFee, tip *big.Int) *GasPrice {
	return &GasPrice{
		BaseFee:   new(big.Int),
		Tip:       copyOrZero(tip),
		MaxFee:    copyOrZero(maxFee),
		Fallback:  true,
		Timestamp: time.Now(),
	}
}

// Capped returns a copy whose max fee does not exceed limit.
// A nil or zero limit returns the price unchanged.
func (g *GasPrice) Capped(limit *big.Int) (*GasPrice, bool) {
	if limit == nil || limit.Sign() <= 0 || g.MaxFee.Cmp(limit) <= 0 {
		return g, false
	}
	c := *g
	c.MaxFee = new(big.Int).Set(limit)
	return &c, true
}

// Gwei returns the max fee in gwei for display and metrics.
func (g *GasPrice) Gwei() float64 {
	f, _ := asset.ToDecimal(g.MaxFee, 9).Float64()
	return f
}

// TipGwei returns the priority fee in gwei.
func (g *GasPrice) TipGwei() float64 {
	f, _ := asset.ToDecimal(g.Tip, 9).Float64()
	return f
}

// ComputeMaxFee returns 2*baseFee + tip, leaving room for one full
// base-fee doubling before inclusion.
func ComputeMaxFee(baseFee, tip *big.Int) *big.Int {
	out := new(big.Int).Lsh(copyOrZero(baseFee), 1)
	return out.Add(out, copyOrZero(tip))
}

// GasCost returns assumedGas * maxFee in wei.
func GasCost(assumedGas uint64, maxFee *big.Int) *big.Int {
	if maxFee == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(assumedGas), maxFee)
}

// GweiToWei converts whole gwei to wei.
func GweiToWei(gwei int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(gwei), gweiUnit)
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
