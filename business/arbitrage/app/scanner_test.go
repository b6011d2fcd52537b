package app_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/business/arbitrage/app"
	"github.com/fd1az/sizing-bot/business/arbitrage/domain"
	blockchainDomain "github.com/fd1az/sizing-bot/business/blockchain/domain"
	pricingDomain "github.com/fd1az/sizing-bot/business/pricing/domain"
	sizing "github.com/fd1az/sizing-bot/business/sizing/app"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/asset"
	"github.com/fd1az/sizing-bot/internal/logger"
)

func ether(s string) *big.Int {
	v, err := asset.ParseEther(s)
	if err != nil {
		panic(err)
	}
	return v
}

// pool is a fee-less constant-product pool between WETH and one token.
type pool struct {
	weth  *big.Int
	token *big.Int
}

func swapOut(in, reserveIn, reserveOut *big.Int) *big.Int {
	num := new(big.Int).Mul(in, reserveOut)
	return num.Quo(num, new(big.Int).Add(reserveIn, in))
}

// fakeQuotes prices uniswap at 2000 tokens per WETH and sushiswap at 1900,
// so buying on uniswap and selling on sushiswap is the profitable route.
type fakeQuotes struct {
	pools  map[pricingDomain.Venue]pool
	broken map[common.Address]bool
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		pools: map[pricingDomain.Venue]pool{
			pricingDomain.VenueUniswap:   {weth: ether("100"), token: ether("200000")},
			pricingDomain.VenueSushiswap: {weth: ether("100"), token: ether("190000")},
		},
		broken: map[common.Address]bool{},
	}
}

func (f *fakeQuotes) QuoteFuncs(buy, sell pricingDomain.Venue, token common.Address) (sizing.QuoteFunc, sizing.QuoteFunc) {
	if f.broken[token] {
		return nil, nil
	}
	b, s := f.pools[buy], f.pools[sell]
	return func(_ context.Context, in *big.Int) (*big.Int, error) {
			return swapOut(in, b.weth, b.token), nil
		}, func(_ context.Context, in *big.Int) (*big.Int, error) {
			return swapOut(in, s.token, s.weth), nil
		}
}

type fakeCosts struct {
	cost *big.Int
	gas  *blockchainDomain.GasPrice
	err  error
}

func newFakeCosts() *fakeCosts {
	maxFee := big.NewInt(20_000_000_000)
	return &fakeCosts{
		cost: new(big.Int).Mul(maxFee, big.NewInt(450_000)),
		gas:  blockchainDomain.FallbackGasPrice(maxFee, big.NewInt(2_000_000_000)),
	}
}

func (f *fakeCosts) CostFunc(context.Context) (sizing.CostFunc, *blockchainDomain.GasPrice, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return sizing.ConstantCost(f.cost), f.gas, nil
}

func testConfig(tokens ...*asset.Token) app.ScannerConfig {
	search := sizing.DefaultSearchConfig()
	search.SegmentDivisor = 4096
	search.FinalPoints = 41
	return app.ScannerConfig{
		Tokens:       tokens,
		MinIn:        ether("0.02"),
		MaxIn:        ether("10"),
		Search:       search,
		GridSamples:  25,
		MinProfit:    ether("0.005"),
		WETH:         asset.AddrWETH,
		FlashLoanFee: 3000,
		GasLimit:     550_000,
	}
}

func newScanner(t *testing.T, quotes app.QuoteSource, costs app.CostSource, cfg app.ScannerConfig) *app.Scanner {
	t.Helper()
	opt, err := sizing.NewOptimizer(logger.NewNop())
	require.NoError(t, err)
	s, err := app.NewScanner(quotes, costs, opt, cfg, logger.NewNop())
	require.NoError(t, err)
	return s
}

func TestScanner_ScanTokenFindsProfitableRoute(t *testing.T) {
	s := newScanner(t, newFakeQuotes(), newFakeCosts(), testConfig(asset.LINK))

	opps, err := s.ScanToken(context.Background(), asset.LINK, 100)
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, "uniswap->sushiswap", opp.Route.String())
	assert.Equal(t, uint64(100), opp.BlockNumber)
	assert.NotEmpty(t, opp.ID)
	assert.True(t, opp.SizeIn.Cmp(ether("1.2")) > 0)
	assert.True(t, opp.SizeIn.Cmp(ether("1.35")) < 0)
	assert.True(t, opp.Profit.Cmp(ether("0.005")) >= 0)
	assert.Equal(t, "0.009", opp.GasCostEther().String())
	assert.True(t, opp.Gas.Fallback)

	// profit = weth back - size - gas
	want := new(big.Int).Sub(opp.WethBack, opp.SizeIn)
	want.Sub(want, opp.Gas.Cost)
	assert.Equal(t, want.String(), opp.Profit.String())

	assert.Equal(t, uint8(0), opp.FlashLoan.DexToBuyID)
	assert.Equal(t, asset.LINK.Address(), opp.FlashLoan.Token)
	assert.Equal(t, opp.Profit.String(), opp.FlashLoan.ExpectedProfit.String())
	selector := crypto.Keccak256([]byte("requestFlashLoan(address,uint256,bytes)"))[:4]
	assert.Equal(t, selector, opp.Calldata[:4])
	assert.Nil(t, opp.Tx, "no receiver configured")
	assert.Nil(t, opp.Grid)
}

func TestScanner_BuildsUnsignedTxForReceiver(t *testing.T) {
	cfg := testConfig(asset.LINK)
	cfg.Receiver = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	costs := newFakeCosts()
	s := newScanner(t, newFakeQuotes(), costs, cfg)

	opps, err := s.ScanToken(context.Background(), asset.LINK, 1)
	require.NoError(t, err)
	require.Len(t, opps, 1)

	tx := opps[0].Tx
	require.NotNil(t, tx)
	assert.Equal(t, cfg.Receiver, *tx.To())
	assert.Equal(t, uint64(550_000), tx.Gas())
	assert.Equal(t, costs.gas.MaxFee.String(), tx.GasFeeCap().String())
	assert.Equal(t, costs.gas.Tip.String(), tx.GasTipCap().String())
	assert.Equal(t, opps[0].Calldata, tx.Data())
	assert.Equal(t, "1", tx.ChainId().String())
}

func TestScanner_ThresholdFiltersSmallProfits(t *testing.T) {
	cfg := testConfig(asset.LINK)
	cfg.MinProfit = ether("1000")
	s := newScanner(t, newFakeQuotes(), newFakeCosts(), cfg)

	opps, err := s.ScanToken(context.Background(), asset.LINK, 1)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestScanner_NoOpportunityWhenPricesAgree(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.pools[pricingDomain.VenueSushiswap] = quotes.pools[pricingDomain.VenueUniswap]
	s := newScanner(t, quotes, newFakeCosts(), testConfig(asset.LINK))

	opps, err := s.ScanToken(context.Background(), asset.LINK, 1)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestScanner_ScanAllIsolatesFailingTokens(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.broken[asset.UNI.Address()] = true
	cfg := testConfig(asset.UNI, asset.LINK)
	cfg.TokenConcurrency = 2
	s := newScanner(t, quotes, newFakeCosts(), cfg)

	opps, summary := s.ScanAll(context.Background(), &blockchainDomain.Block{Number: 7})

	require.Len(t, opps, 1)
	assert.Equal(t, asset.LINK, opps[0].Token)
	assert.Equal(t, uint64(7), summary.BlockNumber)
	assert.Equal(t, 2, summary.Tokens)
	assert.Equal(t, 4, summary.Routes)
	assert.Equal(t, 1, summary.Opportunities)
	assert.Equal(t, 1, summary.Failures)
	assert.Positive(t, summary.Evaluations)
	assert.NotNil(t, summary.Gas)
}

func TestScanner_ScanTokenReportsOptimizerErrors(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.broken[asset.UNI.Address()] = true
	s := newScanner(t, quotes, newFakeCosts(), testConfig(asset.UNI))

	opps, err := s.ScanToken(context.Background(), asset.UNI, 1)
	assert.Empty(t, opps)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeOracleNotCallable, apperror.GetCode(err))
}

func TestScanner_ScanAllWithoutGasCost(t *testing.T) {
	costs := newFakeCosts()
	costs.err = errors.New("rpc down")
	s := newScanner(t, newFakeQuotes(), costs, testConfig(asset.LINK, asset.UNI))

	opps, summary := s.ScanAll(context.Background(), nil)
	assert.Empty(t, opps)
	assert.Equal(t, 2, summary.Failures)
	assert.Nil(t, summary.Gas)
}

func TestScanner_CrossCheckAttachesGridResult(t *testing.T) {
	cfg := testConfig(asset.LINK)
	cfg.CrossCheck = true
	s := newScanner(t, newFakeQuotes(), newFakeCosts(), cfg)

	opps, err := s.ScanToken(context.Background(), asset.LINK, 1)
	require.NoError(t, err)
	require.Len(t, opps, 1)

	grid := opps[0].Grid
	require.NotNil(t, grid)
	assert.Equal(t, 25, grid.Evaluations)
	// Both searches land next to the ~1.27 ETH optimum.
	assert.True(t, opps[0].GridProfitGap().Abs().LessThan(decimal.RequireFromString("0.001")))
	assert.Greater(t, opps[0].Evaluations, grid.Evaluations)
}

func TestNewScanner_RejectsBadInput(t *testing.T) {
	opt, err := sizing.NewOptimizer(logger.NewNop())
	require.NoError(t, err)

	_, err = app.NewScanner(nil, newFakeCosts(), opt, testConfig(), nil)
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))

	cfg := testConfig()
	cfg.Routes = []domain.Route{{Buy: pricingDomain.VenueUniswap, Sell: pricingDomain.VenueUniswap}}
	_, err = app.NewScanner(newFakeQuotes(), newFakeCosts(), opt, cfg, nil)
	assert.Equal(t, apperror.CodeUnsupportedVenue, apperror.GetCode(err))
}
