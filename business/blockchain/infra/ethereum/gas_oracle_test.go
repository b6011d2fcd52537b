package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/business/blockchain/domain"
	"github.com/fd1az/sizing-bot/internal/logger"
)

type fakeFeeSource struct {
	header    *types.Header
	headerErr error
	tip       *big.Int
	tipErr    error
	calls     atomic.Int32
}

func (f *fakeFeeSource) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	f.calls.Add(1)
	return f.header, f.headerErr
}

func (f *fakeFeeSource) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return f.tip, f.tipErr
}

func header(number int64, baseFeeGwei int64) *types.Header {
	return &types.Header{Number: big.NewInt(number), BaseFee: domain.GweiToWei(baseFeeGwei)}
}

func newTestOracle(t *testing.T, src FeeSource) *GasOracle {
	t.Helper()
	cfg := DefaultGasOracleConfig("")
	cfg.CacheTTL = time.Minute
	g, err := NewGasOracleWithSource(cfg, src, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGasOracle_MaxFeeFromBaseAndTip(t *testing.T) {
	src := &fakeFeeSource{header: header(100, 25), tip: domain.GweiToWei(3)}
	g := newTestOracle(t, src)

	price, err := g.CurrentGasPrice(context.Background())
	require.NoError(t, err)

	assert.False(t, price.Fallback)
	assert.Equal(t, uint64(100), price.BlockNumber)
	assert.Equal(t, domain.GweiToWei(53).String(), price.MaxFee.String())
}

func TestGasOracle_CachesWithinTTL(t *testing.T) {
	src := &fakeFeeSource{header: header(1, 10), tip: domain.GweiToWei(1)}
	g := newTestOracle(t, src)

	for i := 0; i < 3; i++ {
		_, err := g.CurrentGasPrice(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestGasOracle_FallbackOnHeaderError(t *testing.T) {
	src := &fakeFeeSource{headerErr: errors.New("connection refused")}
	g := newTestOracle(t, src)

	price, err := g.CurrentGasPrice(context.Background())
	require.NoError(t, err)

	assert.True(t, price.Fallback)
	assert.Equal(t, domain.GweiToWei(40).String(), price.MaxFee.String())
	assert.Equal(t, domain.GweiToWei(2).String(), price.Tip.String())
}

func TestGasOracle_FallbackNotCached(t *testing.T) {
	src := &fakeFeeSource{headerErr: errors.New("timeout")}
	g := newTestOracle(t, src)

	_, _ = g.CurrentGasPrice(context.Background())
	src.headerErr = nil
	src.header = header(5, 10)
	src.tip = domain.GweiToWei(1)

	price, err := g.CurrentGasPrice(context.Background())
	require.NoError(t, err)
	assert.False(t, price.Fallback)
	assert.Equal(t, domain.GweiToWei(21).String(), price.MaxFee.String())
}

func TestGasOracle_FallbackTipOnTipError(t *testing.T) {
	src := &fakeFeeSource{header: header(1, 10), tipErr: errors.New("method not found")}
	g := newTestOracle(t, src)

	price, err := g.CurrentGasPrice(context.Background())
	require.NoError(t, err)
	assert.False(t, price.Fallback)
	assert.Equal(t, domain.GweiToWei(22).String(), price.MaxFee.String())
}

func TestGasOracle_MissingBaseFee(t *testing.T) {
	src := &fakeFeeSource{header: &types.Header{Number: big.NewInt(1)}, tip: big.NewInt(1)}
	g := newTestOracle(t, src)

	price, err := g.CurrentGasPrice(context.Background())
	require.NoError(t, err)
	assert.True(t, price.Fallback)
}

func TestGasOracle_Cap(t *testing.T) {
	src := &fakeFeeSource{header: header(1, 400), tip: domain.GweiToWei(2)}
	g := newTestOracle(t, src)

	price, err := g.CurrentGasPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.GweiToWei(500).String(), price.MaxFee.String())
}

func TestGasOracle_NotConnected(t *testing.T) {
	g, err := NewGasOracle(GasOracleConfig{CacheTTL: time.Second}, logger.NewNop())
	require.NoError(t, err)
	defer g.Close()

	price, err := g.CurrentGasPrice(context.Background())
	require.NoError(t, err)
	assert.True(t, price.Fallback)
	assert.Equal(t, domain.GweiToWei(40).String(), price.MaxFee.String())
}

func TestGasOracle_OpenBreakerStillAnswers(t *testing.T) {
	src := &fakeFeeSource{headerErr: errors.New("connection reset")}
	g := newTestOracle(t, src)

	for i := 0; i < 10; i++ {
		price, err := g.CurrentGasPrice(context.Background())
		require.NoError(t, err)
		assert.True(t, price.Fallback)
	}
	assert.Equal(t, int32(5), src.calls.Load(), "breaker opens after five consecutive failures")
}
