package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sizing-bot/internal/asset"
)

// GasSnapshot is the fee the opportunity was priced with.
type GasSnapshot struct {
	MaxFeePerGas *big.Int
	Tip          *big.Int
	Cost         *big.Int // assumed gas * max fee, in wei
	Fallback     bool
}

// GridCheck is the grid-search result used to cross-check the sized trade.
type GridCheck struct {
	SizeIn      *big.Int
	Profit      *big.Int
	Evaluations int
}

// Opportunity is a sized, profitable round trip ready to be handed to the
// flash-loan receiver.
type Opportunity struct {
	ID          string
	BlockNumber uint64
	Timestamp   time.Time

	Token *asset.Token
	Route Route

	SizeIn   *big.Int // WETH borrowed
	TokenOut *big.Int // token bought on the buy venue
	WethBack *big.Int // WETH received on the sell venue
	Profit   *big.Int // WethBack - SizeIn - gas cost

	Gas         GasSnapshot
	Iterations  int
	Evaluations int
	Grid        *GridCheck

	FlashLoan FlashLoanParams
	Calldata  []byte
	// Tx is nil when no receiver contract is configured.
	Tx *types.Transaction
}

// NewOpportunityID returns a random identifier.
func NewOpportunityID() string {
	return uuid.NewString()
}

// SizeInEther returns the borrowed amount in ether.
func (o *Opportunity) SizeInEther() decimal.Decimal {
	return asset.ToDecimal(o.SizeIn, 18)
}

// ProfitEther returns the net profit in ether.
func (o *Opportunity) ProfitEther() decimal.Decimal {
	return asset.ToDecimal(o.Profit, 18)
}

// GasCostEther returns the gas cost in ether.
func (o *Opportunity) GasCostEther() decimal.Decimal {
	return asset.ToDecimal(o.Gas.Cost, 18)
}

// TokenOutAmount returns the bought amount in token units.
func (o *Opportunity) TokenOutAmount() asset.Amount {
	return asset.NewAmount(o.Token, o.TokenOut)
}

// WethBackAmount returns the sell-leg output as a WETH amount.
func (o *Opportunity) WethBackAmount() asset.Amount {
	return asset.NewAmount(asset.WETH, o.WethBack)
}

// ReturnBps is net profit relative to size, in basis points.
func (o *Opportunity) ReturnBps() decimal.Decimal {
	if o.SizeIn == nil || o.SizeIn.Sign() == 0 || o.Profit == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(o.Profit, 0).
		Div(decimal.NewFromBigInt(o.SizeIn, 0)).
		Mul(decimal.NewFromInt(10_000))
}

// GridProfitGap returns ternary profit minus grid profit in ether, or zero
// without a grid check.
func (o *Opportunity) GridProfitGap() decimal.Decimal {
	if o.Grid == nil || o.Grid.Profit == nil {
		return decimal.Zero
	}
	return asset.ToDecimal(new(big.Int).Sub(o.Profit, o.Grid.Profit), 18)
}

// IsProfitable reports a strictly positive net profit.
func (o *Opportunity) IsProfitable() bool {
	return o.Profit != nil && o.Profit.Sign() > 0
}
