package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/sizing-bot/business/blockchain/domain"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/cache"
	"github.com/fd1az/sizing-bot/internal/circuitbreaker"
	"github.com/fd1az/sizing-bot/internal/logger"
)

const gasCacheKey = "current"

// FeeSource is the subset of ethclient the gas oracle reads from.
type FeeSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
}

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	RPCURL         string
	CacheTTL       time.Duration
	MaxFeeCap      *big.Int // zero or nil disables the cap
	FallbackMaxFee *big.Int
	FallbackTip    *big.Int
}

// DefaultGasOracleConfig returns the defaults: 40 gwei max fee and 2 gwei
// tip when the chain cannot be read, capped at 500 gwei.
func DefaultGasOracleConfig(rpcURL string) GasOracleConfig {
	return GasOracleConfig{
		RPCURL:         rpcURL,
		CacheTTL:       12 * time.Second,
		MaxFeeCap:      domain.GweiToWei(500),
		FallbackMaxFee: domain.GweiToWei(40),
		FallbackTip:    domain.GweiToWei(2),
	}
}

// gasOracleMetrics holds OTEL metric instruments.
type gasOracleMetrics struct {
	gasPriceFetches metric.Int64Counter
	gasPriceGwei    metric.Float64Gauge
	fallbacks       metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
}

// GasOracle reads base fee and priority tip from the chain and derives
// maxFeePerGas from them.
type GasOracle struct {
	config GasOracleConfig
	logger logger.LoggerInterface

	source   FeeSource
	closer   func()
	sourceMu sync.RWMutex

	priceCache *cache.Cache[string, *domain.GasPrice]
	cb         *circuitbreaker.CircuitBreaker[*domain.GasPrice]

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a gas oracle. It has no fee source until Connect
// succeeds and answers with the fallback price until then.
func NewGasOracle(cfg GasOracleConfig, log logger.LoggerInterface) (*GasOracle, error) {
	if cfg.FallbackMaxFee == nil || cfg.FallbackTip == nil {
		d := DefaultGasOracleConfig(cfg.RPCURL)
		if cfg.FallbackMaxFee == nil {
			cfg.FallbackMaxFee = d.FallbackMaxFee
		}
		if cfg.FallbackTip == nil {
			cfg.FallbackTip = d.FallbackTip
		}
	}

	g := &GasOracle{
		config:     cfg,
		logger:     log,
		priceCache: cache.New[string, *domain.GasPrice](5 * time.Minute),
		tracer:     otel.Tracer(tracerName),
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("gas-oracle")
	cbCfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	g.cb = circuitbreaker.New[*domain.GasPrice](cbCfg)

	return g, nil
}

// NewGasOracleWithSource creates a gas oracle bound to src.
func NewGasOracleWithSource(cfg GasOracleConfig, src FeeSource, log logger.LoggerInterface) (*GasOracle, error) {
	g, err := NewGasOracle(cfg, log)
	if err != nil {
		return nil, err
	}
	g.source = src
	return g, nil
}

func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.gasPriceFetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Total gas price fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.gasPriceGwei, err = meter.Float64Gauge(
		"gas_max_fee_gwei",
		metric.WithDescription("Current max fee per gas in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.fallbacks, err = meter.Int64Counter(
		"gas_price_fallbacks_total",
		metric.WithDescription("Times the fallback fee was used"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheMisses, err = meter.Int64Counter(
		"gas_cache_misses_total",
		metric.WithDescription("Gas price cache misses"),
		metric.WithUnit("{miss}"),
	)
	return err
}

// Connect establishes connection to the Ethereum node.
func (g *GasOracle) Connect(ctx context.Context) error {
	ctx, span := g.tracer.Start(ctx, "gas.connect",
		trace.WithAttributes(attribute.String("url", g.config.RPCURL)),
	)
	defer span.End()

	client, err := ethclient.DialContext(ctx, g.config.RPCURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to connect gas oracle"))
	}

	g.sourceMu.Lock()
	g.source = client
	g.closer = client.Close
	g.sourceMu.Unlock()

	span.SetStatus(codes.Ok, "connected")
	g.logger.Info(ctx, "gas oracle connected", "url", g.config.RPCURL)

	return nil
}

// CurrentGasPrice returns the cached fee snapshot or reads a fresh one.
// RPC failures degrade to the fallback price and are logged, never returned.
func (g *GasOracle) CurrentGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	ctx, span := g.tracer.Start(ctx, "gas.current_price")
	defer span.End()

	if price, found := g.priceCache.Get(ctx, gasCacheKey); found {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return price, nil
	}
	g.metrics.cacheMisses.Add(ctx, 1)

	g.sourceMu.RLock()
	src := g.source
	g.sourceMu.RUnlock()

	if src == nil {
		return g.fallback(ctx, span, "gas oracle not connected"), nil
	}

	g.metrics.gasPriceFetches.Add(ctx, 1)
	price, err := g.cb.Execute(func() (*domain.GasPrice, error) {
		return g.fetch(ctx, src)
	})
	if err != nil {
		span.RecordError(err)
		g.logger.Warn(ctx, "gas price fetch failed", "error", err)
		return g.fallback(ctx, span, "fetch failed"), nil
	}

	if capped, hit := price.Capped(g.config.MaxFeeCap); hit {
		span.AddEvent("max_fee_capped",
			trace.WithAttributes(attribute.String("wei", price.MaxFee.String())))
		g.logger.Warn(ctx, "max fee exceeds cap", "max_fee_wei", price.MaxFee.String(),
			"cap_wei", g.config.MaxFeeCap.String())
		price = capped
	}

	g.priceCache.Set(ctx, gasCacheKey, price, g.config.CacheTTL)
	g.metrics.gasPriceGwei.Record(ctx, price.Gwei())

	span.SetAttributes(
		attribute.Float64("max_fee_gwei", price.Gwei()),
		attribute.Int64("block_number", int64(price.BlockNumber)),
	)
	span.SetStatus(codes.Ok, "fetched")
	return price, nil
}

func (g *GasOracle) fetch(ctx context.Context, src FeeSource) (*domain.GasPrice, error) {
	header, err := src.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to read latest header"))
	}
	if header == nil || header.BaseFee == nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContext("latest header has no base fee"))
	}

	tip, err := src.SuggestGasTipCap(ctx)
	if err != nil || tip == nil {
		g.logger.Warn(ctx, "tip suggestion failed, using fallback tip", "error", err)
		tip = g.config.FallbackTip
	}

	var number uint64
	if header.Number != nil {
		number = header.Number.Uint64()
	}
	return domain.NewGasPrice(header.BaseFee, tip, number), nil
}

func (g *GasOracle) fallback(ctx context.Context, span trace.Span, reason string) *domain.GasPrice {
	g.metrics.fallbacks.Add(ctx, 1)
	span.AddEvent("fallback_price", trace.WithAttributes(attribute.String("reason", reason)))
	g.logger.Debug(ctx, "using fallback gas price", "reason", reason,
		"max_fee_wei", g.config.FallbackMaxFee.String())
	return domain.FallbackGasPrice(g.config.FallbackMaxFee, g.config.FallbackTip)
}

// Close closes the gas oracle.
func (g *GasOracle) Close() error {
	g.sourceMu.Lock()
	defer g.sourceMu.Unlock()

	if g.closer != nil {
		g.closer()
		g.closer = nil
	}
	g.source = nil

	g.priceCache.Close()

	return nil
}
