// Package onchain runs read-only contract calls for the venue quoters
// behind a shared rate limiter and a per-venue circuit breaker.
package onchain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/circuitbreaker"
	"github.com/fd1az/sizing-bot/internal/logger"
	"github.com/fd1az/sizing-bot/internal/ratelimit"
)

const meterName = "github.com/fd1az/sizing-bot/business/pricing/infra/onchain"

type callMetrics struct {
	calls   metric.Int64Counter
	errors  metric.Int64Counter
	latency metric.Float64Histogram
}

// Caller wraps an eth_call backend for one venue.
type Caller struct {
	venue   string
	backend ethereum.ContractCaller
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	attrs   metric.MeasurementOption
	metrics *callMetrics
}

// NewCaller creates a caller. limiter may be nil for no limit.
func NewCaller(venue string, backend ethereum.ContractCaller, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Caller, error) {
	if limiter == nil {
		limiter = ratelimit.New(0, 0)
	}

	cbCfg := circuitbreaker.DefaultConfig(venue + "-quoter")
	cbCfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	c := &Caller{
		venue:   venue,
		backend: backend,
		limiter: limiter,
		cb:      circuitbreaker.New[[]byte](cbCfg),
		attrs:   metric.WithAttributes(attribute.String("venue", venue)),
	}
	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return c, nil
}

func (c *Caller) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &callMetrics{}

	c.metrics.calls, err = meter.Int64Counter(
		"dex_quote_calls_total",
		metric.WithDescription("Total quoter contract calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	c.metrics.errors, err = meter.Int64Counter(
		"dex_quote_errors_total",
		metric.WithDescription("Failed quoter contract calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	c.metrics.latency, err = meter.Float64Histogram(
		"dex_quote_latency_ms",
		metric.WithDescription("Quoter call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// Call executes data against to at the latest block.
func (c *Caller) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	c.metrics.calls.Add(ctx, 1, c.attrs)

	out, err := c.cb.Execute(func() ([]byte, error) {
		return c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	c.metrics.latency.Record(ctx, float64(time.Since(start).Milliseconds()), c.attrs)

	if err != nil {
		c.metrics.errors.Add(ctx, 1, c.attrs)
		if apperror.GetCode(err) == apperror.CodeCircuitOpen {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s call to %s", c.venue, to.Hex())))
	}
	return out, nil
}

// Breaker reports the circuit state.
func (c *Caller) Breaker() circuitbreaker.State {
	return c.cb.State()
}
