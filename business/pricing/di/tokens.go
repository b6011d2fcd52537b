// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/sizing-bot/business/pricing/app"
	"github.com/fd1az/sizing-bot/internal/di"
	"github.com/fd1az/sizing-bot/internal/ratelimit"
)

// Public service tokens - exposed to other modules
var (
	PricingService = di.NewToken[*app.PricingService]("pricing.PricingService")
)

// Private dependency tokens - internal to pricing module
var (
	RPCLimiter      = di.NewToken[*ratelimit.Limiter]("pricing:rpcLimiter")
	UniswapQuoter   = di.NewToken[app.Quoter]("pricing:uniswapQuoter")
	SushiswapQuoter = di.NewToken[app.Quoter]("pricing:sushiswapQuoter")
)

func GetPricingService(c di.ServiceRegistry) *app.PricingService {
	return di.GetToken(c, PricingService)
}
