package onchain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/business/pricing/infra/onchain"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/circuitbreaker"
	"github.com/fd1az/sizing-bot/internal/logger"
	"github.com/fd1az/sizing-bot/internal/ratelimit"
)

type countingBackend struct {
	err   error
	calls int
}

func (b *countingBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	b.calls++
	return []byte{0x01}, b.err
}

func TestCaller_PassesThrough(t *testing.T) {
	backend := &countingBackend{}
	c, err := onchain.NewCaller("uniswap", backend, nil, logger.NewNop())
	require.NoError(t, err)

	out, err := c.Call(context.Background(), common.Address{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, out)
}

func TestCaller_OpensBreaker(t *testing.T) {
	backend := &countingBackend{err: errors.New("connection refused")}
	c, err := onchain.NewCaller("sushiswap", backend, nil, logger.NewNop())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := c.Call(context.Background(), common.Address{}, nil)
		assert.Equal(t, apperror.CodeContractCallFailed, apperror.GetCode(err))
	}
	assert.Equal(t, circuitbreaker.StateOpen, c.Breaker())

	_, err = c.Call(context.Background(), common.Address{}, nil)
	assert.Equal(t, apperror.CodeCircuitOpen, apperror.GetCode(err))
	assert.Equal(t, 5, backend.calls)
}

func TestCaller_RateLimitRespectsContext(t *testing.T) {
	backend := &countingBackend{}
	limiter := ratelimit.New(0.001, 1)
	c, err := onchain.NewCaller("uniswap", backend, limiter, logger.NewNop())
	require.NoError(t, err)

	_, err = c.Call(context.Background(), common.Address{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Call(ctx, common.Address{}, nil)
	assert.Equal(t, apperror.CodeRateLimitExceeded, apperror.GetCode(err))
	assert.Equal(t, 1, backend.calls)
}
