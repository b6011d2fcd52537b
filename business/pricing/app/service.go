package app

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sizing-bot/business/pricing/domain"
	sizing "github.com/fd1az/sizing-bot/business/sizing/app"
	"github.com/fd1az/sizing-bot/internal/apperror"
)

// PricingService turns venue quoters into the buy and sell oracles of a
// WETH -> token -> WETH round trip.
type PricingService struct {
	weth    common.Address
	quoters map[domain.Venue]Quoter
}

// NewPricingService indexes quoters by venue. A later quoter for the same
// venue replaces an earlier one.
func NewPricingService(weth common.Address, quoters ...Quoter) *PricingService {
	m := make(map[domain.Venue]Quoter, len(quoters))
	for _, q := range quoters {
		m[q.Venue()] = q
	}
	return &PricingService{weth: weth, quoters: m}
}

// Venues returns the venues with a registered quoter.
func (s *PricingService) Venues() []domain.Venue {
	out := make([]domain.Venue, 0, len(s.quoters))
	for v := range s.quoters {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// QuoteFuncs returns the buy oracle (WETH -> token on buy) and the sell
// oracle (token -> WETH on sell). A venue without a quoter yields an
// oracle that always fails, so the optimizer treats every size as
// unprofitable instead of aborting.
func (s *PricingService) QuoteFuncs(buy, sell domain.Venue, token common.Address) (sizing.QuoteFunc, sizing.QuoteFunc) {
	buyLeg := domain.Leg{Venue: buy, TokenIn: s.weth, TokenOut: token}
	sellLeg := domain.Leg{Venue: sell, TokenIn: token, TokenOut: s.weth}
	return s.legFunc(buyLeg), s.legFunc(sellLeg)
}

func (s *PricingService) legFunc(leg domain.Leg) sizing.QuoteFunc {
	q, ok := s.quoters[leg.Venue]
	if !ok {
		return func(context.Context, *big.Int) (*big.Int, error) {
			return nil, apperror.New(apperror.CodeUnsupportedVenue,
				apperror.WithContext(leg.Venue.String()))
		}
	}
	return func(ctx context.Context, amountIn *big.Int) (*big.Int, error) {
		return q.Quote(ctx, leg.TokenIn, leg.TokenOut, amountIn)
	}
}
