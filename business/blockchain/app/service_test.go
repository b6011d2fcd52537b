package app_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/business/blockchain/app"
	"github.com/fd1az/sizing-bot/business/blockchain/domain"
)

type stubOracle struct {
	price *domain.GasPrice
	err   error
	calls int
}

func (s *stubOracle) CurrentGasPrice(context.Context) (*domain.GasPrice, error) {
	s.calls++
	return s.price, s.err
}

type stubSubscriber struct{}

func (stubSubscriber) Subscribe(context.Context) (<-chan *domain.Block, error) { return nil, nil }
func (stubSubscriber) LatestBlock(context.Context) (*domain.Block, error) {
	return &domain.Block{Number: 7}, nil
}
func (stubSubscriber) State() domain.ConnectionState { return domain.StateConnected }

func TestBlockchainService_CostFuncIsConstant(t *testing.T) {
	oracle := &stubOracle{price: domain.NewGasPrice(domain.GweiToWei(19), domain.GweiToWei(2), 1)}
	svc := app.NewBlockchainService(stubSubscriber{}, oracle, 350_000)

	cost, price, err := svc.CostFunc(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.GweiToWei(40).String(), price.MaxFee.String())

	small, err := cost(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	large, err := cost(context.Background(), new(big.Int).Lsh(big.NewInt(1), 80))
	require.NoError(t, err)

	assert.Equal(t, "14000000000000000", small.String())
	assert.Equal(t, small.String(), large.String())
	assert.Equal(t, 1, oracle.calls, "gas is read once per cost snapshot")
}

func TestBlockchainService_GasCostError(t *testing.T) {
	svc := app.NewBlockchainService(stubSubscriber{}, &stubOracle{err: errors.New("down")}, 1)

	_, _, err := svc.CostFunc(context.Background())
	assert.Error(t, err)
}

func TestBlockchainService_Delegates(t *testing.T) {
	svc := app.NewBlockchainService(stubSubscriber{}, &stubOracle{}, 1)

	b, err := svc.LatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), b.Number)
	assert.Equal(t, domain.StateConnected, svc.ConnectionState())
}
