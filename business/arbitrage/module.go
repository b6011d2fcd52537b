// Package arbitrage implements the arbitrage bounded context: scanning
// token routes, sizing them and preparing the flash-loan call.
package arbitrage

import (
	"context"
	"math/big"

	"github.com/fd1az/sizing-bot/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/sizing-bot/business/arbitrage/di"
	"github.com/fd1az/sizing-bot/business/arbitrage/domain"
	"github.com/fd1az/sizing-bot/business/arbitrage/infra"
	blockchainDI "github.com/fd1az/sizing-bot/business/blockchain/di"
	pricingDI "github.com/fd1az/sizing-bot/business/pricing/di"
	sizing "github.com/fd1az/sizing-bot/business/sizing/app"
	sizingDI "github.com/fd1az/sizing-bot/business/sizing/di"
	"github.com/fd1az/sizing-bot/internal/asset"
	"github.com/fd1az/sizing-bot/internal/config"
	"github.com/fd1az/sizing-bot/internal/di"
	"github.com/fd1az/sizing-bot/internal/logger"
	"github.com/fd1az/sizing-bot/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		if cfg.Arbitrage.TUIMode {
			return infra.NewTUIReporter(nil)
		}
		return infra.NewConsoleReporter(nil)
	})

	di.RegisterToken(c, arbitrageDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		assets := sr.Get(monolith.ServiceAssets).(*asset.Registry)

		scanCfg, err := ScannerConfig(cfg, assets)
		if err != nil {
			panic("failed to build scanner config: " + err.Error())
		}
		s, err := app.NewScanner(
			pricingDI.GetPricingService(sr),
			blockchainDI.GetBlockchainService(sr),
			sizingDI.GetOptimizer(sr),
			scanCfg,
			log,
		)
		if err != nil {
			panic("failed to create scanner: " + err.Error())
		}
		return s
	})

	di.RegisterToken(c, arbitrageDI.Runner, func(sr di.ServiceRegistry) *app.Runner {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		return app.NewRunner(
			blockchainDI.GetBlockchainService(sr),
			arbitrageDI.GetScanner(sr),
			arbitrageDI.GetReporter(sr),
			cfg.Arbitrage.ScanTimeout,
			log,
		)
	})

	return nil
}

// Startup starts the block-driven scan loop. In run-once mode the caller
// drives a single scan through the runner instead.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	runner := arbitrageDI.GetRunner(mono.Services())

	if cfg.Arbitrage.RunOnce {
		mono.Logger().Info(ctx, "arbitrage module ready for a single scan")
		return nil
	}
	if err := runner.Start(ctx); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "arbitrage module started",
		"tokens", cfg.Arbitrage.Tokens,
		"min_profit_eth", cfg.Arbitrage.MinProfit,
		"flash_loan_contract", cfg.Arbitrage.FlashLoanContract,
	)
	return nil
}

// ScannerConfig maps the application config onto the scanner's settings.
func ScannerConfig(cfg *config.Config, assets *asset.Registry) (app.ScannerConfig, error) {
	tokens, err := assets.Resolve(cfg.Arbitrage.Tokens)
	if err != nil {
		return app.ScannerConfig{}, err
	}

	weth := asset.AddrWETH
	if t, ok := assets.BySymbol("WETH"); ok {
		weth = t.Address()
	}

	search := sizing.DefaultSearchConfig()
	if cfg.Sizing.MaxIterations > 0 {
		search.MaxIterations = cfg.Sizing.MaxIterations
	}
	if cfg.Sizing.SegmentDivisor > 0 {
		search.SegmentDivisor = cfg.Sizing.SegmentDivisor
	}
	if cfg.Sizing.FinalPoints > 0 {
		search.FinalPoints = cfg.Sizing.FinalPoints
	}
	if cfg.Sizing.Concurrency > 0 {
		search.Concurrency = cfg.Sizing.Concurrency
	}

	gridSamples := cfg.Sizing.GridSamples
	if gridSamples <= 0 {
		gridSamples = sizing.DefaultGridSamples
	}

	return app.ScannerConfig{
		Tokens:           tokens,
		Routes:           domain.DefaultRoutes(),
		MinIn:            cfg.Sizing.MinInWei(),
		MaxIn:            cfg.Sizing.MaxInWei(),
		Search:           search,
		CrossCheck:       cfg.Sizing.CrossCheck,
		GridSamples:      gridSamples,
		MinProfit:        cfg.Arbitrage.MinProfitWei(),
		WETH:             weth,
		FlashLoanFee:     uint32(cfg.Arbitrage.FlashLoanFeeTier),
		Receiver:         cfg.Arbitrage.FlashLoanContractHex(),
		ChainID:          new(big.Int).SetUint64(cfg.Ethereum.ChainID),
		GasLimit:         cfg.Arbitrage.GasLimit,
		TokenConcurrency: cfg.Arbitrage.TokenConcurrency,
	}, nil
}
