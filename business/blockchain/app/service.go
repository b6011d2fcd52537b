package app

import (
	"context"
	"math/big"

	"github.com/fd1az/sizing-bot/business/blockchain/domain"
	sizing "github.com/fd1az/sizing-bot/business/sizing/app"
)

// BlockchainService coordinates blockchain interactions.
type BlockchainService struct {
	subscriber BlockSubscriber
	gasOracle  GasOracle
	assumedGas uint64
}

// NewBlockchainService creates a new BlockchainService. assumedGas is the
// gas charged to every flash-loan attempt regardless of size.
func NewBlockchainService(subscriber BlockSubscriber, gasOracle GasOracle, assumedGas uint64) *BlockchainService {
	return &BlockchainService{
		subscriber: subscriber,
		gasOracle:  gasOracle,
		assumedGas: assumedGas,
	}
}

// SubscribeBlocks starts the block subscription and returns the channel.
func (s *BlockchainService) SubscribeBlocks(ctx context.Context) (<-chan *domain.Block, error) {
	return s.subscriber.Subscribe(ctx)
}

// LatestBlock returns the chain head.
func (s *BlockchainService) LatestBlock(ctx context.Context) (*domain.Block, error) {
	return s.subscriber.LatestBlock(ctx)
}

// GasPrice retrieves the current fee snapshot.
func (s *BlockchainService) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return s.gasOracle.CurrentGasPrice(ctx)
}

// GasCostWei prices one transaction at the current max fee.
func (s *BlockchainService) GasCostWei(ctx context.Context) (*big.Int, *domain.GasPrice, error) {
	price, err := s.gasOracle.CurrentGasPrice(ctx)
	if err != nil {
		return nil, nil, err
	}
	return domain.GasCost(s.assumedGas, price.MaxFee), price, nil
}

// CostFunc snapshots the gas cost once and returns it as a size-independent
// cost for the optimizer. Every candidate in a run then pays the same fee.
func (s *BlockchainService) CostFunc(ctx context.Context) (sizing.CostFunc, *domain.GasPrice, error) {
	cost, price, err := s.GasCostWei(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sizing.ConstantCost(cost), price, nil
}

// ConnectionState returns the current connection state.
func (s *BlockchainService) ConnectionState() domain.ConnectionState {
	return s.subscriber.State()
}
