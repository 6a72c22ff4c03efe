package engine

import (
	"context"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/retail-pulse/segmentation-engine/internal/adapter"
	"github.com/retail-pulse/segmentation-engine/internal/domain"
	"github.com/retail-pulse/segmentation-engine/internal/logger"
)

// Config holds engine configuration
type Config struct {
	// WorkerPoolSize bounds concurrency in the per-customer stages
	WorkerPoolSize int
}

// Input is the complete snapshot an analysis run operates on, supplied by an
// external data-loading collaborator
type Input struct {
	Transactions []domain.Transaction
	Customers    []domain.Customer
}

// Engine runs the full segmentation and forecasting pipeline:
//
//	aggregate -> score -> classify -> {cohort, forecast} -> report
//
// The scorer is the one stage that must observe the complete profile set
// before emitting anything (its boundaries are global statistics); every
// other stage is per-customer-independent. A run either produces a complete,
// internally consistent snapshot or fails with a StageError; partial results
// are never returned.
type Engine struct {
	aggregator *Aggregator
	scorer     *Scorer
	classifier *Classifier
	clock      adapter.Clock
	poolSize   int
}

// New creates a new analysis engine
func New(cfg Config, clock adapter.Clock) *Engine {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 8
	}
	return &Engine{
		aggregator: NewAggregator(cfg.WorkerPoolSize),
		scorer:     NewScorer(),
		classifier: NewClassifier(),
		clock:      clock,
		poolSize:   cfg.WorkerPoolSize,
	}
}

// Run executes one analysis run over the given input snapshot. Zero-valued
// run parameters are defaulted (as-of now, 2-year lookback, monthly cohorts,
// 1-year horizon). Cancellation is run-granular: once ctx is done the run
// returns an error and no result.
func (e *Engine) Run(ctx context.Context, input Input, params domain.RunParams) (*domain.RunResult, error) {
	params = e.applyDefaults(params)
	runID := ulid.Make().String()

	logger.InfoCtx(ctx, "Starting analysis run",
		zap.String("run_id", runID),
		zap.Time("as_of", params.AsOf),
		zap.Int("lookback_days", params.LookbackDays),
		zap.Int("transactions", len(input.Transactions)),
		zap.Int("customers", len(input.Customers)),
	)

	profiles, err := e.aggregator.Aggregate(ctx, input.Transactions, input.Customers, params)
	if err != nil {
		return nil, err
	}

	// Quantile barrier: the complete profile set goes to the scorer in one
	// call; boundaries computed over a subset would not be comparable.
	scores, boundaries, err := e.scorer.ScoreAll(profiles)
	if err != nil {
		return nil, domain.NewStageError(domain.StageScore, "", err)
	}

	assignments, err := e.classifier.Classify(profiles, scores)
	if err != nil {
		return nil, err
	}

	cohorts, err := NewCohortTracker(params.Granularity).Track(input.Transactions)
	if err != nil {
		return nil, err
	}

	forecaster := NewForecaster(params.HorizonYears)
	results := make([]domain.CustomerResult, len(profiles))
	pool := pond.NewPool(e.poolSize, pond.WithContext(ctx))
	for i := range profiles {
		pool.Submit(func() {
			results[i] = domain.CustomerResult{
				CustomerID: profiles[i].CustomerID,
				Profile:    profiles[i],
				Score:      scores[i],
				Assignment: assignments[i],
				Forecast:   forecaster.Forecast(&profiles[i], assignments[i].ChurnRisk),
			}
		})
	}
	pool.StopAndWait()
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStageError(domain.StageForecast, "", err)
	}

	result := &domain.RunResult{
		RunID:       runID,
		Params:      params,
		GeneratedAt: e.clock.Now().UTC(),
		Boundaries:  boundaries,
		Customers:   results,
		Segments:    BuildSegmentSummaries(results),
		Cohorts:     cohorts,
	}

	logger.InfoCtx(ctx, "Analysis run completed",
		zap.String("run_id", runID),
		zap.Int("population", len(results)),
		zap.Int("segments", len(result.Segments)),
		zap.Int("cohort_rows", len(cohorts)),
	)
	return result, nil
}

// applyDefaults fills zero-valued run parameters
func (e *Engine) applyDefaults(params domain.RunParams) domain.RunParams {
	if params.AsOf.IsZero() {
		params.AsOf = e.clock.Now().UTC()
	}
	if params.LookbackDays <= 0 {
		params.LookbackDays = domain.DefaultLookbackDays
	}
	if !domain.IsValidGranularity(params.Granularity) {
		params.Granularity = domain.CohortMonthly
	}
	if params.HorizonYears <= 0 {
		params.HorizonYears = 1
	}
	return params
}
