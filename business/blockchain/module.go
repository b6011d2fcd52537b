// Package blockchain implements the blockchain bounded context: new-block
// notifications and the gas price that turns into a per-attempt cost.
package blockchain

import (
	"context"
	"fmt"

	"github.com/fd1az/sizing-bot/business/blockchain/app"
	blockchainDI "github.com/fd1az/sizing-bot/business/blockchain/di"
	"github.com/fd1az/sizing-bot/business/blockchain/domain"
	"github.com/fd1az/sizing-bot/business/blockchain/infra/ethereum"
	"github.com/fd1az/sizing-bot/internal/config"
	"github.com/fd1az/sizing-bot/internal/di"
	"github.com/fd1az/sizing-bot/internal/logger"
	"github.com/fd1az/sizing-bot/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.BlockSubscriber, func(sr di.ServiceRegistry) app.BlockSubscriber {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		subCfg := ethereum.DefaultSubscriberConfig(cfg.Ethereum.WebSocketURL, cfg.Ethereum.HTTPURL)
		if cfg.Ethereum.PollInterval > 0 {
			subCfg.PollInterval = cfg.Ethereum.PollInterval
		}
		if cfg.Ethereum.InitialBackoff > 0 {
			subCfg.ReconnectDelay = cfg.Ethereum.InitialBackoff
		}
		if cfg.Ethereum.MaxBackoff > 0 {
			subCfg.MaxReconnect = cfg.Ethereum.MaxBackoff
		}
		sub, err := ethereum.NewSubscriber(subCfg, log)
		if err != nil {
			panic("failed to create subscriber: " + err.Error())
		}
		return sub
	})

	di.RegisterToken(c, blockchainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		oracleCfg := ethereum.DefaultGasOracleConfig(cfg.Ethereum.HTTPURL)
		oracleCfg.CacheTTL = cfg.Gas.CacheTTL
		oracleCfg.MaxFeeCap = cfg.Gas.MaxFeeCapWei()
		oracleCfg.FallbackMaxFee = cfg.Gas.FallbackMaxFeeWei()
		oracleCfg.FallbackTip = cfg.Gas.FallbackTipWei()

		oracle, err := ethereum.NewGasOracle(oracleCfg, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		return app.NewBlockchainService(
			blockchainDI.GetBlockSubscriber(sr),
			blockchainDI.GetGasOracle(sr),
			cfg.Gas.AssumedGas,
		)
	})

	return nil
}

// Startup connects the subscriber and gas oracle. Connection failures are
// logged; the gas oracle answers with its fallback price until it connects.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	sub := blockchainDI.GetBlockSubscriber(mono.Services())
	oracle := blockchainDI.GetGasOracle(mono.Services())

	if connector, ok := sub.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			log.Error(ctx, "failed to connect block subscriber", "error", err)
		}
	}

	if connector, ok := oracle.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			log.Error(ctx, "failed to connect gas oracle", "error", err)
		}
	}

	mono.Health().RegisterCheck("ethereum", func(context.Context) (bool, string) {
		if s, ok := sub.(interface {
			Status() domain.ConnectionStatus
		}); ok {
			st := s.Status()
			return st.State == domain.StateConnected,
				fmt.Sprintf("%s last_block=%d http_fallback=%t", st.State, st.LastBlock, st.UsingHTTP)
		}
		state := sub.State()
		return state == domain.StateConnected, string(state)
	})

	log.Info(ctx, "blockchain module started")
	return nil
}
