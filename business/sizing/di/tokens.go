// Package di contains dependency injection tokens for the sizing context.
package di

import (
	"github.com/fd1az/sizing-bot/business/sizing/app"
	"github.com/fd1az/sizing-bot/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Optimizer = di.NewToken[*app.Optimizer]("sizing.Optimizer")
)

func GetOptimizer(c di.ServiceRegistry) *app.Optimizer {
	return di.GetToken(c, Optimizer)
}
