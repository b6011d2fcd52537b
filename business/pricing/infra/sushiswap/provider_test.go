package sushiswap

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

	"github.com/fd1az/sizing-bot/business/pricing/domain"
	"github.com/fd1az/sizing-bot/business/pricing/infra/onchain"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/logger"
)

var (
	router = common.HexToAddress("0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F")
	weth   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	dai    = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

type fakeCaller struct {
	out  []byte
	err  error
	last ethereum.CallMsg
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.last = msg
	return f.out, f.err
}

func routerABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(RouterV2ABI))
	require.NoError(t, err)
	return parsed
}

func packAmounts(t *testing.T, amounts ...*big.Int) []byte {
	t.Helper()
	out, err := routerABI(t).Methods[methodGetAmountsOut].Outputs.Pack(amounts)
	require.NoError(t, err)
	return out
}

func newProvider(t *testing.T, backend *fakeCaller) *Provider {
	t.Helper()
	caller, err := onchain.NewCaller("sushiswap", backend, nil, logger.NewNop())
	require.NoError(t, err)
	p, err := NewProvider(caller, router, logger.NewNop())
	require.NoError(t, err)
	return p
}

func TestProvider_Quote(t *testing.T) {
	out := new(big.Int).Mul(big.NewInt(2_950), big.NewInt(1e18))
	backend := &fakeCaller{out: packAmounts(t, big.NewInt(1e18), out)}
	p := newProvider(t, backend)

	assert.Equal(t, domain.VenueSushiswap, p.Venue())

	got, err := p.Quote(context.Background(), weth, dai, big.NewInt(1e18))
	require.NoError(t, err)
	assert.Equal(t, out.String(), got.String())

	want, err := routerABI(t).Pack(methodGetAmountsOut, big.NewInt(1e18), []common.Address{weth, dai})
	require.NoError(t, err)
	assert.Equal(t, want, backend.last.Data)
	assert.Equal(t, router, *backend.last.To)
}

func TestProvider_QuoteFailures(t *testing.T) {
	tests := []struct {
		name     string
		backend  *fakeCaller
		wantCode apperror.Code
	}{
		{"zero output", &fakeCaller{out: packAmounts(t, big.NewInt(1), big.NewInt(0))}, apperror.CodeInvalidQuote},
		{"short path", &fakeCaller{out: packAmounts(t, big.NewInt(1))}, apperror.CodeInvalidQuote},
		{"no liquidity", &fakeCaller{err: errors.New("execution reverted: INSUFFICIENT_LIQUIDITY")}, apperror.CodeContractCallFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(t, tt.backend)
			_, err := p.Quote(context.Background(), weth, dai, big.NewInt(1))
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperror.GetCode(err))
		})
	}
}
