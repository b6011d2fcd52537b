package app

import (
	"context"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/sizing-bot/business/sizing/domain"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/logger"
)

const (
	tracerName = "github.com/fd1az/sizing-bot/business/sizing/app"
	meterName  = "github.com/fd1az/sizing-bot/business/sizing/app"
)

// ErrOracleNotCallable is matched (errors.Is) by the error returned when a
// request is missing its buy or sell quote function.
var ErrOracleNotCallable = &apperror.AppError{Code: apperror.CodeOracleNotCallable}

// optimizerMetrics holds OTEL metric instruments.
type optimizerMetrics struct {
	runs          metric.Int64Counter
	evaluations   metric.Int64Counter
	noOpportunity metric.Int64Counter
	runLatency    metric.Float64Histogram
}

// Optimizer searches for the input size that maximizes a two-leg profit.
// It holds no per-run state; every call gets its own interval and cache.
type Optimizer struct {
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *optimizerMetrics
}

// NewOptimizer creates an Optimizer.
func NewOptimizer(log logger.LoggerInterface) (*Optimizer, error) {
	if log == nil {
		log = logger.NewNop()
	}

	o := &Optimizer{
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	if err := o.initMetrics(); err != nil {
		return nil, apperror.Internal(apperror.CodeInternalError, "init sizing metrics", err)
	}

	return o, nil
}

func (o *Optimizer) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	o.metrics = &optimizerMetrics{}

	o.metrics.runs, err = meter.Int64Counter(
		"sizing_runs_total",
		metric.WithDescription("Total optimization runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	o.metrics.evaluations, err = meter.Int64Counter(
		"sizing_evaluations_total",
		metric.WithDescription("Candidate amounts sent to the quote oracles"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return err
	}

	o.metrics.noOpportunity, err = meter.Int64Counter(
		"sizing_no_opportunity_total",
		metric.WithDescription("Runs that ended with the neutral zero result"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	o.metrics.runLatency, err = meter.Float64Histogram(
		"sizing_run_latency_ms",
		metric.WithDescription("Optimization run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// FindOptimalSize runs the ternary-section search over [MinIn, MaxIn] and
// refines the final interval with a dense sample.
//
// Unusable bounds yield the neutral zero result without any oracle call.
// A nil Buy or Sell is a programming error and is returned as an error.
// Oracle failures never surface: they only invalidate single candidates.
func (o *Optimizer) FindOptimalSize(ctx context.Context, req Request, opts ...Option) (domain.OptimizationResult, error) {
	if !req.validBounds() {
		return domain.NoOpportunity(domain.StrategyTernary), nil
	}
	if err := checkOracles(req); err != nil {
		return domain.OptimizationResult{}, err
	}

	cfg := buildConfig(opts)

	ctx, span := o.tracer.Start(ctx, "sizing.find_optimal_size",
		trace.WithAttributes(
			attribute.String("min_in", req.MinIn.String()),
			attribute.String("max_in", req.MaxIn.String()),
			attribute.Int("max_iterations", cfg.MaxIterations),
			attribute.Int64("segment_divisor", cfg.SegmentDivisor),
			attribute.Int("final_points", cfg.FinalPoints),
		),
	)
	defer span.End()
	start := time.Now()

	cache := newEvalCache(NewEvaluator(req.Buy, req.Sell, req.costOrZero()))

	interval := domain.NewSearchInterval(req.MinIn, req.MaxIn)
	precisionFloor := new(big.Int).Quo(interval.Span(), big.NewInt(cfg.SegmentDivisor))

	iter := 0
	for iter < cfg.MaxIterations {
		if !interval.Subdivisible() {
			break
		}

		m1, m2 := interval.InteriorPoints()
		pair := evaluateAll(ctx, cache, []*big.Int{m1, m2}, cfg.Concurrency)
		p1, p2 := pair[0], pair[1]

		switch {
		case !p1.Valid && !p2.Valid:
			// Both marks sit in an invalid zone: step over it from both sides.
			interval = interval.ShrinkBoth()
			span.AddEvent("dead_zone_shrink", trace.WithAttributes(attribute.Int("iteration", iter)))
		case p1.Compare(p2) <= 0:
			interval = interval.DiscardLeft(m1)
		default:
			interval = interval.DiscardRight(m2)
		}

		iter++
		if interval.Span().Cmp(precisionFloor) <= 0 {
			break
		}
	}

	points := interval.SamplePoints(cfg.FinalPoints)
	bestSize, best := bestOf(points, evaluateAll(ctx, cache, points, cfg.Concurrency))

	// The domain bounds only displace the refinement winner when strictly
	// better, so a boundary optimum survives narrowing that ended inside an
	// invalid region without overriding the right-biased tie rule.
	anchors := []*big.Int{req.MinIn, req.MaxIn}
	for i, t := range evaluateAll(ctx, cache, anchors, cfg.Concurrency) {
		if t.Better(best) {
			bestSize, best = new(big.Int).Set(anchors[i]), t
		}
	}
	result := domain.ResultFromTriple(domain.StrategyTernary, bestSize, best)
	result.Iterations = iter
	result.Evaluations = cache.Evaluations()

	o.record(ctx, span, result, start)

	o.logger.Debug(ctx, "ternary search finished",
		"iterations", iter,
		"evaluations", result.Evaluations,
		"final_left", interval.Left.String(),
		"final_right", interval.Right.String(),
		"size_in", result.SizeIn.String(),
		"profit", result.Profit.String(),
	)

	return result, nil
}

// GridSearchOptimalSize evaluates max(2, sampleCount) evenly spaced
// candidates and returns the best one. It makes no unimodality assumption
// and serves as a baseline for FindOptimalSize.
func (o *Optimizer) GridSearchOptimalSize(ctx context.Context, req Request, sampleCount int, opts ...Option) (domain.OptimizationResult, error) {
	if !req.validBounds() {
		return domain.NoOpportunity(domain.StrategyGrid), nil
	}
	if err := checkOracles(req); err != nil {
		return domain.OptimizationResult{}, err
	}

	cfg := buildConfig(opts)

	ctx, span := o.tracer.Start(ctx, "sizing.grid_search",
		trace.WithAttributes(
			attribute.String("min_in", req.MinIn.String()),
			attribute.String("max_in", req.MaxIn.String()),
			attribute.Int("samples", sampleCount),
		),
	)
	defer span.End()
	start := time.Now()

	cache := newEvalCache(NewEvaluator(req.Buy, req.Sell, req.costOrZero()))

	points := domain.GridPoints(req.MinIn, req.MaxIn, sampleCount)
	bestSize, best := bestOf(points, evaluateAll(ctx, cache, points, cfg.Concurrency))
	result := domain.ResultFromTriple(domain.StrategyGrid, bestSize, best)
	result.Evaluations = cache.Evaluations()

	o.record(ctx, span, result, start)

	o.logger.Debug(ctx, "grid search finished",
		"samples", len(points),
		"size_in", result.SizeIn.String(),
		"profit", result.Profit.String(),
	)

	return result, nil
}

func (o *Optimizer) record(ctx context.Context, span trace.Span, result domain.OptimizationResult, start time.Time) {
	strategy := attribute.String("strategy", string(result.Strategy))

	o.metrics.runs.Add(ctx, 1, metric.WithAttributes(strategy))
	o.metrics.evaluations.Add(ctx, int64(result.Evaluations), metric.WithAttributes(strategy))
	o.metrics.runLatency.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(strategy))
	if result.IsNeutral() {
		o.metrics.noOpportunity.Add(ctx, 1, metric.WithAttributes(strategy))
	}

	span.SetAttributes(
		attribute.String("size_in", result.SizeIn.String()),
		attribute.String("profit", result.Profit.String()),
		attribute.Int("iterations", result.Iterations),
		attribute.Int("evaluations", result.Evaluations),
	)
	span.SetStatus(codes.Ok, "search complete")
}

func checkOracles(req Request) error {
	if req.Buy == nil || req.Sell == nil {
		return apperror.New(apperror.CodeOracleNotCallable,
			apperror.WithContext("buy and sell quote functions must be set"))
	}
	return nil
}

// evaluateAll evaluates every point through the cache, at most limit at a
// time, and returns the triples in input order. The caller only acts once
// all of them are in.
func evaluateAll(ctx context.Context, cache *evalCache, points []*big.Int, limit int) []domain.ProfitTriple {
	out := make([]domain.ProfitTriple, len(points))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, p := range points {
		g.Go(func() error {
			out[i] = cache.Get(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// bestOf scans points in ascending order and keeps the first strict
// maximum. The size is zero and the triple invalid when nothing was valid.
func bestOf(points []*big.Int, triples []domain.ProfitTriple) (*big.Int, domain.ProfitTriple) {
	bestSize := new(big.Int)
	best := domain.InvalidTriple(nil, nil)
	for i, t := range triples {
		if t.Better(best) {
			bestSize, best = new(big.Int).Set(points[i]), t
		}
	}
	return bestSize, best
}
