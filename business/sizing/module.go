// Package sizing implements the sizing bounded context: the search for the
// flash-loan size with the highest net profit.
package sizing

import (
	"context"

	"github.com/fd1az/sizing-bot/business/sizing/app"
	sizingDI "github.com/fd1az/sizing-bot/business/sizing/di"
	"github.com/fd1az/sizing-bot/internal/di"
	"github.com/fd1az/sizing-bot/internal/logger"
	"github.com/fd1az/sizing-bot/internal/monolith"
)

// Module implements the sizing bounded context.
type Module struct{}

// RegisterServices registers the optimizer with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, sizingDI.Optimizer, func(sr di.ServiceRegistry) *app.Optimizer {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		opt, err := app.NewOptimizer(log)
		if err != nil {
			panic("failed to create optimizer: " + err.Error())
		}
		return opt
	})
	return nil
}

// Startup resolves the optimizer and logs the configured search.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	_ = sizingDI.GetOptimizer(mono.Services())

	cfg := mono.Config().Sizing
	mono.Logger().Info(ctx, "sizing module started",
		"min_in_eth", cfg.MinIn,
		"max_in_eth", cfg.MaxIn,
		"max_iterations", cfg.MaxIterations,
		"segment_divisor", cfg.SegmentDivisor,
		"final_points", cfg.FinalPoints,
		"cross_check", cfg.CrossCheck,
	)
	return nil
}
