// Package ethereum provides Ethereum blockchain infrastructure adapters.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/sizing-bot/business/blockchain/domain"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/circuitbreaker"
	"github.com/fd1az/sizing-bot/internal/logger"
)

const (
	tracerName = "github.com/fd1az/sizing-bot/business/blockchain/infra/ethereum"
	meterName  = "github.com/fd1az/sizing-bot/business/blockchain/infra/ethereum"
)

// SubscriberConfig holds configuration for the Ethereum subscriber.
type SubscriberConfig struct {
	WSURL          string        // WebSocket endpoint (primary)
	HTTPURL        string        // HTTP endpoint (fallback)
	PollInterval   time.Duration // Polling interval for HTTP fallback
	ReconnectDelay time.Duration // Initial delay before reconnecting WS
	MaxReconnect   time.Duration // Ceiling for the exponential reconnect delay
	// FallbackWindow is how long to poll over HTTP before retrying WS.
	FallbackWindow time.Duration
	BufferSize     int
}

// DefaultSubscriberConfig returns sensible defaults.
func DefaultSubscriberConfig(wsURL, httpURL string) SubscriberConfig {
	return SubscriberConfig{
		WSURL:          wsURL,
		HTTPURL:        httpURL,
		PollInterval:   12 * time.Second, // ~1 block time
		ReconnectDelay: 5 * time.Second,
		MaxReconnect:   time.Minute,
		FallbackWindow: 2 * time.Minute,
		BufferSize:     16,
	}
}

type subscriberMetrics struct {
	blocksReceived   metric.Int64Counter
	subscribeErrors  metric.Int64Counter
	connectionState  metric.Int64Gauge
	blockLatency     metric.Float64Histogram
	httpFallbackUsed metric.Int64Counter
}

// Subscriber streams new heads over WebSocket and falls back to polling
// the HTTP endpoint while WS is unavailable.
type Subscriber struct {
	config SubscriberConfig
	logger logger.LoggerInterface

	wsClient   *ethclient.Client
	httpClient *ethclient.Client
	clientMu   sync.RWMutex

	state      domain.ConnectionState
	stateMu    sync.RWMutex
	usingHTTP  atomic.Bool
	lastBlock  atomic.Uint64
	reconnects atomic.Int32

	blocks  chan *domain.Block
	done    chan struct{}
	started atomic.Bool
	closed  atomic.Bool
	wg      sync.WaitGroup

	httpCB  *circuitbreaker.CircuitBreaker[*types.Header]
	backoff *backoff.ExponentialBackOff

	tracer  trace.Tracer
	metrics *subscriberMetrics
}

// NewSubscriber creates a new Ethereum block subscriber.
func NewSubscriber(cfg SubscriberConfig, log logger.LoggerInterface) (*Subscriber, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	s := &Subscriber{
		config: cfg,
		logger: log,
		state:  domain.StateDisconnected,
		blocks: make(chan *domain.Block, cfg.BufferSize),
		done:   make(chan struct{}),
		tracer: otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("eth-http")
	cbCfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		s.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	s.httpCB = circuitbreaker.New[*types.Header](cbCfg)

	s.backoff = backoff.NewExponentialBackOff()
	if cfg.ReconnectDelay > 0 {
		s.backoff.InitialInterval = cfg.ReconnectDelay
	}
	if cfg.MaxReconnect > 0 {
		s.backoff.MaxInterval = cfg.MaxReconnect
	}
	s.backoff.Reset()

	return s, nil
}

func (s *Subscriber) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &subscriberMetrics{}

	s.metrics.blocksReceived, err = meter.Int64Counter(
		"eth_blocks_received_total",
		metric.WithDescription("Total Ethereum blocks received"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	s.metrics.subscribeErrors, err = meter.Int64Counter(
		"eth_subscribe_errors_total",
		metric.WithDescription("Total Ethereum subscription errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	s.metrics.connectionState, err = meter.Int64Gauge(
		"eth_connection_state",
		metric.WithDescription("Ethereum connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return err
	}

	s.metrics.blockLatency, err = meter.Float64Histogram(
		"eth_block_latency_ms",
		metric.WithDescription("Latency from block timestamp to receipt"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.httpFallbackUsed, err = meter.Int64Counter(
		"eth_http_fallback_total",
		metric.WithDescription("Times HTTP fallback was used"),
		metric.WithUnit("{fallback}"),
	)
	return err
}

// Connect dials both endpoints. One working endpoint is enough.
func (s *Subscriber) Connect(ctx context.Context) error {
	s.setState(domain.StateConnecting)

	wsErr := s.connectWS(ctx)
	httpErr := s.connectHTTP(ctx)
	if wsErr != nil && httpErr != nil {
		s.setState(domain.StateDisconnected)
		return apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(errors.Join(wsErr, httpErr)),
			apperror.WithContext("failed to connect via WS and HTTP"))
	}
	if wsErr != nil {
		s.logger.Warn(ctx, "ws connection failed, http polling only", "error", wsErr)
	}

	s.setState(domain.StateConnected)
	return nil
}

// Subscribe starts the block loop and returns its channel. The channel is
// closed when ctx ends or Close is called.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan *domain.Block, error) {
	ctx, span := s.tracer.Start(ctx, "eth.subscribe",
		trace.WithAttributes(
			attribute.String("ws_url", s.config.WSURL),
			attribute.String("http_url", s.config.HTTPURL),
		),
	)
	defer span.End()

	if s.closed.Load() {
		err := errors.New("subscriber is closed")
		span.RecordError(err)
		return nil, err
	}
	if !s.started.CompareAndSwap(false, true) {
		return s.blocks, nil
	}

	if !s.hasClient() {
		if err := s.Connect(ctx); err != nil {
			s.started.Store(false)
			span.RecordError(err)
			span.SetStatus(codes.Error, "connect failed")
			return nil, err
		}
	}

	s.wg.Add(1)
	go s.run(context.WithoutCancel(ctx), ctx.Done())

	span.SetStatus(codes.Ok, "subscribed")
	return s.blocks, nil
}

// run alternates between WS streaming and bounded HTTP polling windows
// until stopped.
func (s *Subscriber) run(ctx context.Context, cancel <-chan struct{}) {
	defer s.wg.Done()
	defer close(s.blocks)

	stop := make(chan struct{})
	go func() {
		select {
		case <-cancel:
		case <-s.done:
		}
		close(stop)
	}()

	for {
		s.clientMu.RLock()
		ws, http := s.wsClient, s.httpClient
		s.clientMu.RUnlock()

		switch {
		case ws != nil:
			s.usingHTTP.Store(false)
			s.streamWS(ctx, ws, stop)
		case http != nil:
			s.usingHTTP.Store(true)
			s.metrics.httpFallbackUsed.Add(ctx, 1)
			s.pollHTTP(ctx, stop)
		}

		delay := s.backoff.NextBackOff()
		if !s.sleep(stop, delay) {
			return
		}

		s.setState(domain.StateReconnecting)
		s.reconnects.Add(1)
		if err := s.connectWS(ctx); err != nil {
			s.logger.Warn(ctx, "ws reconnect failed", "error", err, "attempt", s.reconnects.Load())
			s.clientMu.Lock()
			s.wsClient = nil
			s.clientMu.Unlock()
		} else {
			s.backoff.Reset()
		}
		s.setState(domain.StateConnected)
	}
}

func (s *Subscriber) streamWS(ctx context.Context, client *ethclient.Client, stop <-chan struct{}) {
	headers := make(chan *types.Header, s.config.BufferSize)
	sub, err := client.SubscribeNewHead(ctx, headers)
	if err != nil {
		s.logger.Error(ctx, "subscribe new head failed", "error", err)
		s.metrics.subscribeErrors.Add(ctx, 1)
		return
	}
	defer sub.Unsubscribe()

	s.logger.Info(ctx, "subscribed to new heads via ws")

	for {
		select {
		case <-stop:
			return
		case err := <-sub.Err():
			if err != nil {
				s.logger.Error(ctx, "subscription error", "error", err)
				s.metrics.subscribeErrors.Add(ctx, 1)
			}
			return
		case header := <-headers:
			if header != nil {
				s.processHeader(ctx, header, false, stop)
			}
		}
	}
}

// pollHTTP polls the latest header. With a WS endpoint configured it gives
// up after FallbackWindow so WS can be retried.
func (s *Subscriber) pollHTTP(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	var window <-chan time.Time
	if s.config.WSURL != "" && s.config.FallbackWindow > 0 {
		t := time.NewTimer(s.config.FallbackWindow)
		defer t.Stop()
		window = t.C
	}

	s.logger.Info(ctx, "starting http polling fallback", "interval", s.config.PollInterval)
	s.pollLatestBlock(ctx, stop)

	for {
		select {
		case <-stop:
			return
		case <-window:
			return
		case <-ticker.C:
			s.pollLatestBlock(ctx, stop)
		}
	}
}

func (s *Subscriber) pollLatestBlock(ctx context.Context, stop <-chan struct{}) {
	ctx, span := s.tracer.Start(ctx, "eth.poll.block")
	defer span.End()

	s.clientMu.RLock()
	client := s.httpClient
	s.clientMu.RUnlock()

	if client == nil {
		span.AddEvent("no_http_client")
		return
	}

	header, err := s.httpCB.Execute(func() (*types.Header, error) {
		return client.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error(ctx, "http poll failed", "error", err)
		s.metrics.subscribeErrors.Add(ctx, 1)
		return
	}

	if header.Number.Uint64() <= s.lastBlock.Load() {
		span.AddEvent("duplicate_block")
		return
	}

	s.processHeader(ctx, header, true, stop)
	span.SetStatus(codes.Ok, "polled")
}

func (s *Subscriber) processHeader(ctx context.Context, header *types.Header, fromHTTP bool, stop <-chan struct{}) {
	ctx, span := s.tracer.Start(ctx, "eth.process.header",
		trace.WithAttributes(
			attribute.Int64("block_number", header.Number.Int64()),
			attribute.Bool("from_http", fromHTTP),
		),
	)
	defer span.End()

	block := headerToBlock(header)

	latency := time.Since(block.Timestamp)
	s.metrics.blockLatency.Record(ctx, float64(latency.Milliseconds()))
	s.lastBlock.Store(block.Number)

	select {
	case <-stop:
		return
	case s.blocks <- block:
		s.metrics.blocksReceived.Add(ctx, 1)
		s.logger.Debug(ctx, "block received",
			"number", block.Number,
			"hash", block.Hash.Hex()[:10],
			"latency_ms", latency.Milliseconds())
	default:
		span.AddEvent("block_dropped_buffer_full")
		s.logger.Warn(ctx, "block dropped, buffer full", "number", block.Number)
	}
}

func headerToBlock(header *types.Header) *domain.Block {
	return &domain.Block{
		Number:    header.Number.Uint64(),
		Hash:      header.Hash(),
		Timestamp: time.Unix(int64(header.Time), 0),
		BaseFee:   header.BaseFee,
	}
}

// LatestBlock retrieves the most recent block.
func (s *Subscriber) LatestBlock(ctx context.Context) (*domain.Block, error) {
	ctx, span := s.tracer.Start(ctx, "eth.latest_block")
	defer span.End()

	s.clientMu.RLock()
	client := s.httpClient
	if client == nil {
		client = s.wsClient
	}
	s.clientMu.RUnlock()

	if client == nil {
		err := apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithContext("no ethereum client connected"))
		span.RecordError(err)
		return nil, err
	}

	header, err := s.httpCB.Execute(func() (*types.Header, error) {
		return client.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeBlockNotFound,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch latest block"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return headerToBlock(header), nil
}

func (s *Subscriber) connectWS(ctx context.Context) error {
	if s.config.WSURL == "" {
		return errors.New("ws url not configured")
	}
	client, err := s.dial(ctx, "eth.connect.ws", s.config.WSURL)
	if err != nil {
		return err
	}
	s.clientMu.Lock()
	if s.wsClient != nil {
		s.wsClient.Close()
	}
	s.wsClient = client
	s.clientMu.Unlock()
	return nil
}

func (s *Subscriber) connectHTTP(ctx context.Context) error {
	if s.config.HTTPURL == "" {
		return errors.New("http url not configured")
	}
	client, err := s.dial(ctx, "eth.connect.http", s.config.HTTPURL)
	if err != nil {
		return err
	}
	s.clientMu.Lock()
	s.httpClient = client
	s.clientMu.Unlock()
	return nil
}

func (s *Subscriber) dial(ctx context.Context, spanName, url string) (*ethclient.Client, error) {
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(attribute.String("url", url)))
	defer span.End()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	span.SetStatus(codes.Ok, "connected")
	return client, nil
}

func (s *Subscriber) hasClient() bool {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	return s.wsClient != nil || s.httpClient != nil
}

func (s *Subscriber) sleep(stop <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}

// State returns the current connection state.
func (s *Subscriber) State() domain.ConnectionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Status returns detailed connection status.
func (s *Subscriber) Status() domain.ConnectionStatus {
	return domain.ConnectionStatus{
		State:      s.State(),
		LastBlock:  s.lastBlock.Load(),
		Reconnects: int(s.reconnects.Load()),
		UsingHTTP:  s.usingHTTP.Load(),
	}
}

// Close stops the block loop and closes both clients.
func (s *Subscriber) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Info(context.Background(), "closing ethereum subscriber")
	close(s.done)
	s.wg.Wait()

	s.clientMu.Lock()
	if s.wsClient != nil {
		s.wsClient.Close()
		s.wsClient = nil
	}
	if s.httpClient != nil {
		s.httpClient.Close()
		s.httpClient = nil
	}
	s.clientMu.Unlock()

	s.setState(domain.StateDisconnected)
	return nil
}

func (s *Subscriber) setState(state domain.ConnectionState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()

	var v int64
	switch state {
	case domain.StateConnecting:
		v = 1
	case domain.StateConnected:
		v = 2
	case domain.StateReconnecting:
		v = 3
	}
	s.metrics.connectionState.Record(context.Background(), v)
}
