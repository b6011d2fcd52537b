package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/sizing-bot/business/arbitrage/domain"
	blockchainDomain "github.com/fd1az/sizing-bot/business/blockchain/domain"
	sizing "github.com/fd1az/sizing-bot/business/sizing/app"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/asset"
	"github.com/fd1az/sizing-bot/internal/logger"
)

const (
	tracerName = "github.com/fd1az/sizing-bot/business/arbitrage/app"
	meterName  = "github.com/fd1az/sizing-bot/business/arbitrage/app"
)

// ScannerConfig holds everything a scan needs besides its collaborators.
type ScannerConfig struct {
	Tokens []*asset.Token
	Routes []domain.Route

	MinIn  *big.Int
	MaxIn  *big.Int
	Search sizing.SearchConfig

	// CrossCheck runs a grid search next to every sized route and logs
	// how far the two results are apart.
	CrossCheck  bool
	GridSamples int

	MinProfit *big.Int

	WETH         common.Address
	FlashLoanFee uint32
	// Receiver is the flash-loan contract. The zero address skips
	// building the unsigned transaction.
	Receiver common.Address
	ChainID  *big.Int
	GasLimit uint64

	// TokenConcurrency bounds how many tokens are sized at once.
	TokenConcurrency int
}

// ScanSummary describes one pass over the token list.
type ScanSummary struct {
	BlockNumber   uint64
	Tokens        int
	Routes        int
	Opportunities int
	Failures      int
	Evaluations   int
	Gas           *blockchainDomain.GasPrice
	Duration      time.Duration
	StartedAt     time.Time
}

// scannerMetrics holds OTEL metric instruments.
type scannerMetrics struct {
	scans         metric.Int64Counter
	opportunities metric.Int64Counter
	belowMin      metric.Int64Counter
	failures      metric.Int64Counter
	scanLatency   metric.Float64Histogram
	bestProfit    metric.Float64Gauge
}

// Scanner sizes every configured route for every configured token.
type Scanner struct {
	quotes    QuoteSource
	costs     CostSource
	optimizer SizeOptimizer
	cfg       ScannerConfig
	logger    logger.LoggerInterface
	tracer    trace.Tracer
	metrics   *scannerMetrics
}

// NewScanner creates a Scanner. Missing routes default to both directions
// between uniswap and sushiswap.
func NewScanner(quotes QuoteSource, costs CostSource, optimizer SizeOptimizer, cfg ScannerConfig, log logger.LoggerInterface) (*Scanner, error) {
	if quotes == nil || costs == nil || optimizer == nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("scanner needs quotes, costs and an optimizer"))
	}
	if log == nil {
		log = logger.NewNop()
	}
	if len(cfg.Routes) == 0 {
		cfg.Routes = domain.DefaultRoutes()
	}
	for _, r := range cfg.Routes {
		if !r.Valid() {
			return nil, apperror.New(apperror.CodeUnsupportedVenue, apperror.WithContext(r.String()))
		}
	}
	if cfg.MinProfit == nil {
		cfg.MinProfit = new(big.Int)
	}
	if cfg.TokenConcurrency < 1 {
		cfg.TokenConcurrency = 1
	}
	if cfg.ChainID == nil {
		cfg.ChainID = big.NewInt(1)
	}

	s := &Scanner{
		quotes:    quotes,
		costs:     costs,
		optimizer: optimizer,
		cfg:       cfg,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, apperror.Internal(apperror.CodeInternalError, "init scanner metrics", err)
	}
	return s, nil
}

func (s *Scanner) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &scannerMetrics{}

	s.metrics.scans, err = meter.Int64Counter(
		"arbitrage_scans_total",
		metric.WithDescription("Completed passes over the token list"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return err
	}

	s.metrics.opportunities, err = meter.Int64Counter(
		"arbitrage_opportunities_total",
		metric.WithDescription("Sized routes that cleared the profit threshold"),
		metric.WithUnit("{opportunity}"),
	)
	if err != nil {
		return err
	}

	s.metrics.belowMin, err = meter.Int64Counter(
		"arbitrage_below_min_profit_total",
		metric.WithDescription("Profitable routes rejected by the profit threshold"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return err
	}

	s.metrics.failures, err = meter.Int64Counter(
		"arbitrage_route_failures_total",
		metric.WithDescription("Routes that could not be sized"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return err
	}

	s.metrics.scanLatency, err = meter.Float64Histogram(
		"arbitrage_scan_latency_ms",
		metric.WithDescription("Full scan latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.bestProfit, err = meter.Float64Gauge(
		"arbitrage_best_profit_eth",
		metric.WithDescription("Best net profit seen in the last scan"),
		metric.WithUnit("ETH"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Tokens returns the configured scan targets.
func (s *Scanner) Tokens() []*asset.Token {
	return s.cfg.Tokens
}

// ScanToken sizes both routes of one token against the current gas price.
// Routes that fail are skipped; their errors are joined into the returned
// error next to whatever the other route found.
func (s *Scanner) ScanToken(ctx context.Context, token *asset.Token, blockNumber uint64) ([]*domain.Opportunity, error) {
	if token == nil {
		return nil, apperror.New(apperror.CodeTokenNotFound, apperror.WithContext("nil token"))
	}
	cost, gas, err := s.costs.CostFunc(ctx)
	if err != nil {
		return nil, err
	}
	res := s.scanToken(ctx, token, blockNumber, cost, gas)
	return res.opportunities, res.err
}

// ScanAll sizes every configured token with one gas snapshot. A failing
// token never stops the others.
func (s *Scanner) ScanAll(ctx context.Context, block *blockchainDomain.Block) ([]*domain.Opportunity, ScanSummary) {
	var blockNumber uint64
	if block != nil {
		blockNumber = block.Number
	}

	ctx, span := s.tracer.Start(ctx, "arbitrage.scan_all",
		trace.WithAttributes(
			attribute.Int64("block", int64(blockNumber)),
			attribute.Int("tokens", len(s.cfg.Tokens)),
		),
	)
	defer span.End()

	summary := ScanSummary{
		BlockNumber: blockNumber,
		Tokens:      len(s.cfg.Tokens),
		StartedAt:   time.Now(),
	}

	cost, gas, err := s.costs.CostFunc(ctx)
	if err != nil {
		s.logger.Error(ctx, "gas cost unavailable, skipping scan", "block", blockNumber, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "gas cost unavailable")
		summary.Failures = len(s.cfg.Tokens)
		summary.Duration = time.Since(summary.StartedAt)
		return nil, summary
	}
	summary.Gas = gas

	results := make([]tokenResult, len(s.cfg.Tokens))
	var g errgroup.Group
	g.SetLimit(s.cfg.TokenConcurrency)
	for i, token := range s.cfg.Tokens {
		g.Go(func() error {
			results[i] = s.scanToken(ctx, token, blockNumber, cost, gas)
			return nil
		})
	}
	_ = g.Wait()

	var opps []*domain.Opportunity
	for i, r := range results {
		summary.Routes += r.routes
		summary.Evaluations += r.evaluations
		if r.err != nil {
			summary.Failures++
			s.logger.Warn(ctx, "token scan failed",
				"token", s.cfg.Tokens[i].Symbol(),
				"error", r.err,
			)
		}
		opps = append(opps, r.opportunities...)
	}
	summary.Opportunities = len(opps)
	summary.Duration = time.Since(summary.StartedAt)

	s.metrics.scans.Add(ctx, 1)
	s.metrics.scanLatency.Record(ctx, float64(summary.Duration.Milliseconds()))
	if best := bestOf(opps); best != nil {
		f, _ := best.ProfitEther().Float64()
		s.metrics.bestProfit.Record(ctx, f)
	}

	span.SetAttributes(
		attribute.Int("opportunities", summary.Opportunities),
		attribute.Int("failures", summary.Failures),
		attribute.Int("evaluations", summary.Evaluations),
	)
	span.SetStatus(codes.Ok, "scan complete")

	s.logger.Info(ctx, "scan complete",
		"block", blockNumber,
		"tokens", summary.Tokens,
		"opportunities", summary.Opportunities,
		"failures", summary.Failures,
		"evaluations", summary.Evaluations,
		"max_fee_gwei", gas.Gwei(),
		"gas_fallback", gas.Fallback,
		"duration_ms", summary.Duration.Milliseconds(),
	)

	return opps, summary
}

type tokenResult struct {
	opportunities []*domain.Opportunity
	routes        int
	evaluations   int
	err           error
}

func (s *Scanner) scanToken(ctx context.Context, token *asset.Token, blockNumber uint64, cost sizing.CostFunc, gas *blockchainDomain.GasPrice) tokenResult {
	var (
		mu   sync.Mutex
		res  tokenResult
		errs []error
	)

	var g errgroup.Group
	for _, route := range s.cfg.Routes {
		g.Go(func() error {
			opp, evals, err := s.scanRoute(ctx, token, route, blockNumber, cost, gas)

			mu.Lock()
			defer mu.Unlock()
			res.routes++
			res.evaluations += evals
			if err != nil {
				s.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route.String())))
				errs = append(errs, err)
				return nil
			}
			if opp != nil {
				res.opportunities = append(res.opportunities, opp)
			}
			return nil
		})
	}
	_ = g.Wait()

	res.err = errors.Join(errs...)
	return res
}

func (s *Scanner) scanRoute(
	ctx context.Context,
	token *asset.Token,
	route domain.Route,
	blockNumber uint64,
	cost sizing.CostFunc,
	gas *blockchainDomain.GasPrice,
) (*domain.Opportunity, int, error) {
	buy, sell := s.quotes.QuoteFuncs(route.Buy, route.Sell, token.Address())
	req := sizing.Request{
		MinIn: s.cfg.MinIn,
		MaxIn: s.cfg.MaxIn,
		Buy:   buy,
		Sell:  sell,
		Cost:  cost,
	}

	result, err := s.optimizer.FindOptimalSize(ctx, req, sizing.WithSearchConfig(s.cfg.Search))
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.CodeInternalError, token.Symbol()+" "+route.String())
	}
	evals := result.Evaluations

	var grid *domain.GridCheck
	if s.cfg.CrossCheck {
		grid = s.crossCheck(ctx, req, token, route, result.SizeIn, result.Profit)
		if grid != nil {
			evals += grid.Evaluations
		}
	}

	if !result.Actionable() {
		s.logger.Debug(ctx, "no profitable size",
			"token", token.Symbol(),
			"route", route.String(),
		)
		return nil, evals, nil
	}
	if result.Profit.Cmp(s.cfg.MinProfit) < 0 {
		s.metrics.belowMin.Add(ctx, 1)
		s.logger.Debug(ctx, "profit below threshold",
			"token", token.Symbol(),
			"route", route.String(),
			"profit_eth", asset.FormatEther(result.Profit),
			"min_profit_eth", asset.FormatEther(s.cfg.MinProfit),
		)
		return nil, evals, nil
	}

	gasCost, err := cost(ctx, result.SizeIn)
	if err != nil {
		return nil, evals, err
	}

	params, err := domain.NewFlashLoanParams(route, s.cfg.WETH, token.Address(), s.cfg.FlashLoanFee, result.Profit)
	if err != nil {
		return nil, evals, err
	}
	calldata, err := params.RequestCalldata(result.SizeIn)
	if err != nil {
		return nil, evals, err
	}

	opp := &domain.Opportunity{
		ID:          domain.NewOpportunityID(),
		BlockNumber: blockNumber,
		Timestamp:   time.Now(),
		Token:       token,
		Route:       route,
		SizeIn:      result.SizeIn,
		TokenOut:    result.TokenOutAtOpt,
		WethBack:    result.WethBackAtOpt,
		Profit:      result.Profit,
		Gas: domain.GasSnapshot{
			MaxFeePerGas: gas.MaxFee,
			Tip:          gas.Tip,
			Cost:         gasCost,
			Fallback:     gas.Fallback,
		},
		Iterations:  result.Iterations,
		Evaluations: evals,
		Grid:        grid,
		FlashLoan:   params,
		Calldata:    calldata,
	}
	if s.cfg.Receiver != (common.Address{}) {
		opp.Tx = domain.UnsignedTx(s.cfg.ChainID, s.cfg.Receiver, calldata, domain.TxFees{
			MaxFeePerGas:         gas.MaxFee,
			MaxPriorityFeePerGas: gas.Tip,
			GasLimit:             s.cfg.GasLimit,
		})
	}

	s.metrics.opportunities.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route.String()),
		attribute.String("token", token.Symbol()),
	))
	s.logger.Info(ctx, "opportunity sized",
		"id", opp.ID,
		"token", token.Symbol(),
		"route", route.String(),
		"size_in_eth", opp.SizeInEther().String(),
		"profit_eth", opp.ProfitEther().String(),
		"gas_cost_eth", opp.GasCostEther().String(),
		"iterations", opp.Iterations,
		"evaluations", opp.Evaluations,
	)
	return opp, evals, nil
}

// crossCheck runs the grid baseline for req. A failed grid run is logged
// and reported as nil.
func (s *Scanner) crossCheck(ctx context.Context, req sizing.Request, token *asset.Token, route domain.Route, sizeIn, profit *big.Int) *domain.GridCheck {
	grid, err := s.optimizer.GridSearchOptimalSize(ctx, req, s.cfg.GridSamples,
		sizing.WithConcurrency(s.cfg.Search.Concurrency))
	if err != nil {
		s.logger.Warn(ctx, "grid cross-check failed", "token", token.Symbol(), "route", route.String(), "error", err)
		return nil
	}

	s.logger.Info(ctx, "grid cross-check",
		"token", token.Symbol(),
		"route", route.String(),
		"ternary_size_eth", asset.FormatEther(sizeIn),
		"ternary_profit_eth", asset.FormatEther(profit),
		"grid_size_eth", asset.FormatEther(grid.SizeIn),
		"grid_profit_eth", asset.FormatEther(grid.Profit),
		"profit_gap_eth", asset.FormatEther(new(big.Int).Sub(profit, grid.Profit)),
	)

	return &domain.GridCheck{
		SizeIn:      grid.SizeIn,
		Profit:      grid.Profit,
		Evaluations: grid.Evaluations,
	}
}

func bestOf(opps []*domain.Opportunity) *domain.Opportunity {
	var best *domain.Opportunity
	for _, o := range opps {
		if best == nil || o.Profit.Cmp(best.Profit) > 0 {
			best = o
		}
	}
	return best
}
