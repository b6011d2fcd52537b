package app_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/business/pricing/app"
	"github.com/fd1az/sizing-bot/business/pricing/domain"
	"github.com/fd1az/sizing-bot/internal/apperror"
)

var (
	weth  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	token = common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")
)

type call struct {
	in, out common.Address
	amount  string
}

// scaleQuoter returns amountIn * mul.
type scaleQuoter struct {
	venue domain.Venue
	mul   int64
	calls []call
}

func (q *scaleQuoter) Venue() domain.Venue { return q.venue }

func (q *scaleQuoter) Quote(_ context.Context, in, out common.Address, amountIn *big.Int) (*big.Int, error) {
	q.calls = append(q.calls, call{in, out, amountIn.String()})
	return new(big.Int).Mul(amountIn, big.NewInt(q.mul)), nil
}

func TestPricingService_QuoteFuncsRouteLegs(t *testing.T) {
	uni := &scaleQuoter{venue: domain.VenueUniswap, mul: 3}
	sushi := &scaleQuoter{venue: domain.VenueSushiswap, mul: 5}
	svc := app.NewPricingService(weth, uni, sushi)

	buy, sell := svc.QuoteFuncs(domain.VenueUniswap, domain.VenueSushiswap, token)

	out, err := buy(context.Background(), big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, "30", out.String())

	back, err := sell(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, "150", back.String())

	require.Len(t, uni.calls, 1)
	assert.Equal(t, call{weth, token, "10"}, uni.calls[0])
	require.Len(t, sushi.calls, 1)
	assert.Equal(t, call{token, weth, "30"}, sushi.calls[0])
}

func TestPricingService_UnsupportedVenue(t *testing.T) {
	svc := app.NewPricingService(weth, &scaleQuoter{venue: domain.VenueUniswap, mul: 1})

	buy, sell := svc.QuoteFuncs(domain.VenueUniswap, domain.Venue("curve"), token)

	_, err := buy(context.Background(), big.NewInt(1))
	require.NoError(t, err)

	_, err = sell(context.Background(), big.NewInt(1))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeUnsupportedVenue, apperror.GetCode(err))
}

func TestPricingService_Venues(t *testing.T) {
	svc := app.NewPricingService(weth,
		&scaleQuoter{venue: domain.VenueSushiswap, mul: 2},
		&scaleQuoter{venue: domain.VenueUniswap, mul: 3},
	)

	assert.Equal(t, []domain.Venue{domain.VenueSushiswap, domain.VenueUniswap}, svc.Venues())
}
