// Package pricing implements the pricing bounded context: on-chain quotes
// for the venues a round trip can buy and sell on.
package pricing

import (
	"context"

	"github.com/ethereum/go-ethereum"

	"github.com/fd1az/sizing-bot/business/pricing/app"
	pricingDI "github.com/fd1az/sizing-bot/business/pricing/di"
	"github.com/fd1az/sizing-bot/business/pricing/infra/onchain"
	"github.com/fd1az/sizing-bot/business/pricing/infra/sushiswap"
	"github.com/fd1az/sizing-bot/business/pricing/infra/uniswap"
	"github.com/fd1az/sizing-bot/internal/asset"
	"github.com/fd1az/sizing-bot/internal/config"
	"github.com/fd1az/sizing-bot/internal/di"
	"github.com/fd1az/sizing-bot/internal/logger"
	"github.com/fd1az/sizing-bot/internal/monolith"
	"github.com/fd1az/sizing-bot/internal/ratelimit"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.RPCLimiter, func(sr di.ServiceRegistry) *ratelimit.Limiter {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		return ratelimit.New(cfg.Ethereum.RequestsPerSecond, cfg.Ethereum.RequestBurst)
	})

	di.RegisterToken(c, pricingDI.UniswapQuoter, func(sr di.ServiceRegistry) app.Quoter {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		backend := sr.Get(monolith.ServiceCaller).(ethereum.ContractCaller)

		caller, err := onchain.NewCaller("uniswap", backend, di.GetToken(sr, pricingDI.RPCLimiter), log)
		if err != nil {
			panic("failed to create uniswap caller: " + err.Error())
		}
		p, err := uniswap.NewProvider(caller, cfg.Venues.Uniswap.QuoterAddressHex(), cfg.Venues.Uniswap.FeeTier, log)
		if err != nil {
			panic("failed to create uniswap provider: " + err.Error())
		}
		return p
	})

	di.RegisterToken(c, pricingDI.SushiswapQuoter, func(sr di.ServiceRegistry) app.Quoter {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		backend := sr.Get(monolith.ServiceCaller).(ethereum.ContractCaller)

		caller, err := onchain.NewCaller("sushiswap", backend, di.GetToken(sr, pricingDI.RPCLimiter), log)
		if err != nil {
			panic("failed to create sushiswap caller: " + err.Error())
		}
		p, err := sushiswap.NewProvider(caller, cfg.Venues.Sushiswap.RouterAddressHex(), log)
		if err != nil {
			panic("failed to create sushiswap provider: " + err.Error())
		}
		return p
	})

	di.RegisterToken(c, pricingDI.PricingService, func(sr di.ServiceRegistry) *app.PricingService {
		assets := sr.Get(monolith.ServiceAssets).(*asset.Registry)
		weth := asset.WETH.Address()
		if t, ok := assets.BySymbol("WETH"); ok {
			weth = t.Address()
		}
		return app.NewPricingService(weth,
			di.GetToken(sr, pricingDI.UniswapQuoter),
			di.GetToken(sr, pricingDI.SushiswapQuoter),
		)
	})

	return nil
}

// Startup resolves the pricing service so wiring errors surface at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := pricingDI.GetPricingService(mono.Services())
	mono.Logger().Info(ctx, "pricing module started", "venues", svc.Venues())
	return nil
}
