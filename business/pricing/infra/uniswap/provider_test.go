package uniswap

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/business/pricing/infra/onchain"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/logger"
)

var (
	quoterAddr = common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	weth       = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc       = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

type fakeCaller struct {
	out   []byte
	err   error
	calls int
	last  ethereum.CallMsg
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	f.last = msg
	return f.out, f.err
}

func quoterABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	require.NoError(t, err)
	return parsed
}

func packQuote(t *testing.T, amountOut int64) []byte {
	t.Helper()
	out, err := quoterABI(t).Methods[methodQuoteExactInputSingle].Outputs.Pack(
		big.NewInt(amountOut), big.NewInt(0), uint32(2), big.NewInt(90_000))
	require.NoError(t, err)
	return out
}

func newProvider(t *testing.T, backend *fakeCaller) *Provider {
	t.Helper()
	caller, err := onchain.NewCaller("uniswap", backend, nil, logger.NewNop())
	require.NoError(t, err)
	p, err := NewProvider(caller, quoterAddr, FeeTier030, logger.NewNop())
	require.NoError(t, err)
	return p
}

func TestProvider_Quote(t *testing.T) {
	backend := &fakeCaller{out: packQuote(t, 3_000_000_000)}
	p := newProvider(t, backend)

	out, err := p.Quote(context.Background(), weth, usdc, big.NewInt(1e18))
	require.NoError(t, err)
	assert.Equal(t, "3000000000", out.String())

	want, err := quoterABI(t).Pack(methodQuoteExactInputSingle, QuoteExactInputSingleParams{
		TokenIn:           weth,
		TokenOut:          usdc,
		AmountIn:          big.NewInt(1e18),
		Fee:               big.NewInt(FeeTier030),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	require.NoError(t, err)
	assert.Equal(t, want, backend.last.Data)
	assert.Equal(t, quoterAddr, *backend.last.To)
}

func TestProvider_QuoteFailures(t *testing.T) {
	tests := []struct {
		name     string
		backend  *fakeCaller
		amountIn *big.Int
		wantCode apperror.Code
	}{
		{"zero output", &fakeCaller{out: packQuote(t, 0)}, big.NewInt(1), apperror.CodeInvalidQuote},
		{"garbage", &fakeCaller{out: []byte{1, 2, 3}}, big.NewInt(1), apperror.CodeInvalidQuote},
		{"revert", &fakeCaller{err: errors.New("execution reverted")}, big.NewInt(1), apperror.CodeContractCallFailed},
		{"zero input", &fakeCaller{}, big.NewInt(0), apperror.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(t, tt.backend)
			_, err := p.Quote(context.Background(), weth, usdc, tt.amountIn)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperror.GetCode(err))
		})
	}
}

func TestProvider_DefaultFeeTier(t *testing.T) {
	caller, err := onchain.NewCaller("uniswap", &fakeCaller{}, nil, logger.NewNop())
	require.NoError(t, err)
	p, err := NewProvider(caller, quoterAddr, 0, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, int64(FeeTier030), p.feeTier.Int64())
}
