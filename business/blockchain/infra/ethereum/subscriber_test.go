package ethereum

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/business/blockchain/domain"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/logger"
)

func TestHeaderToBlock(t *testing.T) {
	h := &types.Header{
		Number:  big.NewInt(19_000_000),
		Time:    1_700_000_000,
		BaseFee: big.NewInt(30e9),
	}

	b := headerToBlock(h)

	assert.Equal(t, uint64(19_000_000), b.Number)
	assert.Equal(t, h.Hash(), b.Hash)
	assert.Equal(t, time.Unix(1_700_000_000, 0), b.Timestamp)
	assert.Equal(t, "30000000000", b.BaseFee.String())
}

func TestSubscriber_ConnectWithoutEndpoints(t *testing.T) {
	s, err := NewSubscriber(DefaultSubscriberConfig("", ""), logger.NewNop())
	require.NoError(t, err)

	err = s.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeEthereumConnectionFailed, apperror.GetCode(err))
	assert.Equal(t, domain.StateDisconnected, s.State())

	_, err = s.Subscribe(context.Background())
	assert.Error(t, err)
}

func TestSubscriber_LatestBlockWithoutClient(t *testing.T) {
	s, err := NewSubscriber(DefaultSubscriberConfig("", ""), logger.NewNop())
	require.NoError(t, err)

	_, err = s.LatestBlock(context.Background())
	assert.Equal(t, apperror.CodeEthereumConnectionFailed, apperror.GetCode(err))
}

func TestSubscriber_CloseIsIdempotent(t *testing.T) {
	s, err := NewSubscriber(DefaultSubscriberConfig("", ""), logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Subscribe(context.Background())
	assert.Error(t, err)
	assert.Equal(t, domain.StateDisconnected, s.Status().State)
}

func TestSubscriber_BackoffGrows(t *testing.T) {
	cfg := DefaultSubscriberConfig("", "")
	cfg.ReconnectDelay = 100 * time.Millisecond
	cfg.MaxReconnect = time.Second
	s, err := NewSubscriber(cfg, logger.NewNop())
	require.NoError(t, err)

	var last time.Duration
	for i := 0; i < 20; i++ {
		last = s.backoff.NextBackOff()
		assert.LessOrEqual(t, last, cfg.MaxReconnect+cfg.MaxReconnect/2)
	}
	assert.Greater(t, last, cfg.ReconnectDelay)
}
