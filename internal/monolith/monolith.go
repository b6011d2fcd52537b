// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/asset"
	"github.com/fd1az/sizing-bot/internal/config"
	"github.com/fd1az/sizing-bot/internal/di"
	"github.com/fd1az/sizing-bot/internal/health"
	"github.com/fd1az/sizing-bot/internal/logger"
)

// Well-known service names shared by every module.
const (
	ServiceConfig = "config"
	ServiceLogger = "logger"
	ServiceCaller = "contractCaller"
	ServiceAssets = "assetRegistry"
)

// HealthRegistrar accepts named readiness checks.
type HealthRegistrar interface {
	RegisterCheck(name string, check health.CheckFunc)
}

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	// Caller performs read-only eth_call requests against the node.
	Caller() ethereum.ContractCaller
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
	Health() HealthRegistrar
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Option customizes New.
type Option func(*app)

// WithCaller uses c instead of dialing the configured HTTP endpoint.
func WithCaller(c ethereum.ContractCaller) Option {
	return func(a *app) { a.caller = c }
}

// WithHealth registers module checks on h.
func WithHealth(h HealthRegistrar) Option {
	return func(a *app) { a.health = h }
}

// WithAssetRegistry replaces the default token registry.
func WithAssetRegistry(r *asset.Registry) Option {
	return func(a *app) { a.assetRegistry = r }
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	caller        ethereum.ContractCaller
	closeCaller   func()
	assetRegistry *asset.Registry
	health        HealthRegistrar
	container     di.Container
}

// New creates a new Monolith instance.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface, opts ...Option) (*app, error) {
	a := &app{
		config:    cfg,
		logger:    log,
		health:    noopHealth{},
		container: di.NewContainer(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.caller == nil {
		client, err := ethclient.DialContext(ctx, cfg.Ethereum.HTTPURL)
		if err != nil {
			return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
				apperror.WithCause(err),
				apperror.WithContext(cfg.Ethereum.HTTPURL))
		}
		a.caller = client
		a.closeCaller = client.Close
	}

	if a.assetRegistry == nil {
		a.assetRegistry = asset.DefaultRegistry()
	}

	a.container.Register(ServiceConfig, cfg)
	a.container.Register(ServiceLogger, log)
	a.container.Register(ServiceCaller, a.caller)
	a.container.Register(ServiceAssets, a.assetRegistry)

	return a, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Caller() ethereum.ContractCaller {
	return a.caller
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

func (a *app) Health() HealthRegistrar {
	return a.health
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	if a.closeCaller != nil {
		a.closeCaller()
	}
	return nil
}

type noopHealth struct{}

func (noopHealth) RegisterCheck(string, health.CheckFunc) {}
