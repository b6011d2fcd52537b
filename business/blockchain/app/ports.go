// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/fd1az/sizing-bot/business/blockchain/domain"
)

// BlockSubscriber defines the interface for subscribing to new blocks.
type BlockSubscriber interface {
	// Subscribe starts listening for new blocks and returns a channel of blocks.
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)

	// LatestBlock retrieves the most recent block.
	LatestBlock(ctx context.Context) (*domain.Block, error)

	// State returns the current connection state.
	State() domain.ConnectionState
}

// GasOracle provides the fee used to price a flash-loan transaction.
// Implementations never fail on RPC errors; they return a fallback
// snapshot instead.
type GasOracle interface {
	CurrentGasPrice(ctx context.Context) (*domain.GasPrice, error)
}
