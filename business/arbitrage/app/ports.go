// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sizing-bot/business/arbitrage/domain"
	blockchainDomain "github.com/fd1az/sizing-bot/business/blockchain/domain"
	pricingDomain "github.com/fd1az/sizing-bot/business/pricing/domain"
	sizing "github.com/fd1az/sizing-bot/business/sizing/app"
	sizingDomain "github.com/fd1az/sizing-bot/business/sizing/domain"
)

// Reporter defines the interface for reporting arbitrage opportunities.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report sends a sized opportunity to be displayed/logged.
	Report(opp *domain.Opportunity)

	// ReportScan summarizes one pass over the token list.
	ReportScan(summary ScanSummary)

	// UpdateConnectionStatus updates the node connection display.
	UpdateConnectionStatus(status blockchainDomain.ConnectionStatus)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// QuoteSource builds the two legs of a round trip for a token.
type QuoteSource interface {
	QuoteFuncs(buy, sell pricingDomain.Venue, token common.Address) (sizing.QuoteFunc, sizing.QuoteFunc)
}

// CostSource prices one flash-loan attempt.
type CostSource interface {
	CostFunc(ctx context.Context) (sizing.CostFunc, *blockchainDomain.GasPrice, error)
}

// BlockSource delivers new blocks.
type BlockSource interface {
	SubscribeBlocks(ctx context.Context) (<-chan *blockchainDomain.Block, error)
	ConnectionState() blockchainDomain.ConnectionState
}

// SizeOptimizer finds the input size with the highest net profit.
type SizeOptimizer interface {
	FindOptimalSize(ctx context.Context, req sizing.Request, opts ...sizing.Option) (sizingDomain.OptimizationResult, error)
	GridSearchOptimalSize(ctx context.Context, req sizing.Request, sampleCount int, opts ...sizing.Option) (sizingDomain.OptimizationResult, error)
}
