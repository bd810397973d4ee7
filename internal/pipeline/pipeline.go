package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/ocean-health-etl/internal/domain"
	"github.com/couchcryptid/ocean-health-etl/internal/model"
	"github.com/couchcryptid/ocean-health-etl/internal/observability"
	"github.com/google/uuid"
)

// EnvironmentSource produces the normalized environmental and pH tables.
type EnvironmentSource interface {
	Environment(ctx context.Context) ([]domain.Observation, error)
	PH(ctx context.Context) ([]domain.PHObservation, error)
}

// ReefAtlas returns reefs whose bounds intersect hint.
type ReefAtlas interface {
	Reefs(ctx context.Context, hint domain.BBox) ([]domain.Reef, error)
}

// Forecaster trains on a series and returns steps values ahead of it.
type Forecaster interface {
	Forecast(ctx context.Context, series []float64, steps int) ([]float64, error)
}

// Store persists one run's records atomically.
type Store interface {
	Persist(ctx context.Context, records []domain.Record) error
}

// RunReporter publishes the summary of a completed run.
type RunReporter interface {
	Report(ctx context.Context, summary domain.RunSummary) error
}

// Stage names one step of a run. Stages execute strictly in declaration order.
type Stage string

const (
	StageFetchEnv     Stage = "fetch_env"
	StageFetchExtra   Stage = "fetch_extra"
	StageClean        Stage = "clean"
	StageIntegratePH  Stage = "integrate_ph"
	StageSpatialMerge Stage = "spatial_merge"
	StageSample       Stage = "sample"
	StageScore        Stage = "score"
	StageForecast     Stage = "forecast"
	StagePersist      Stage = "persist"
)

// Options tune a run.
type Options struct {
	FastMode                bool
	MaxRowsFast             int
	SampleSeed              uint64
	ForecastMinObservations int
	ForecastSteps           int
	ReefMatchRadiusKm       float64
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		FastMode:                true,
		MaxRowsFast:             5000,
		SampleSeed:              42,
		ForecastMinObservations: 30,
		ForecastSteps:           7,
		ReefMatchRadiusKm:       25,
	}
}

// Pipeline runs the daily fetch, merge, score, and persist sequence once per Run.
type Pipeline struct {
	env        EnvironmentSource
	atlas      ReefAtlas
	forecaster Forecaster
	store      Store
	reporter   RunReporter
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	last       atomic.Pointer[domain.RunSummary]
}

// New creates a Pipeline. atlas and reporter may be nil.
func New(env EnvironmentSource, atlas ReefAtlas, forecaster Forecaster, store Store, reporter RunReporter, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		env:        env,
		atlas:      atlas,
		forecaster: forecaster,
		store:      store,
		reporter:   reporter,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a run has persisted its records,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not persisted a run yet")
	}
	return nil
}

// LastSummary returns the summary of the most recent successful run.
func (p *Pipeline) LastSummary() (domain.RunSummary, bool) {
	s := p.last.Load()
	if s == nil {
		return domain.RunSummary{}, false
	}
	return *s, true
}

// Run executes every stage once. Only a fatal SST schema error, a persistence
// failure, or cancellation returns an error; every other degradation is
// recorded in the summary and the run continues.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	started := time.Now()
	summary := domain.RunSummary{
		RunID:     runID,
		StartedAt: domain.Now(),
		FastMode:  p.opts.FastMode,
	}

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	logger.Info("pipeline started", "fast_mode", p.opts.FastMode)

	var (
		obs   []domain.Observation
		ph    []domain.PHObservation
		reefs []domain.Reef
	)

	err := p.stage(ctx, logger, StageFetchEnv, func() (int, error) {
		var err error
		if obs, err = p.env.Environment(ctx); err != nil {
			return 0, err
		}
		if ph, err = p.env.PH(ctx); err != nil {
			return 0, err
		}
		return len(obs), nil
	})
	if err != nil {
		return summary, err
	}
	summary.SSTSource, summary.DHWSource = environmentProvenance(obs)
	summary.PHSource = phProvenance(ph)
	if len(obs) > 0 {
		summary.ObservationDate = obs[0].Date
	}
	if summary.Degraded() {
		logger.Warn("running on synthetic sst data")
	}

	err = p.stage(ctx, logger, StageFetchExtra, func() (int, error) {
		reefs = p.fetchReefs(ctx, logger, obs)
		return len(reefs), nil
	})
	if err != nil {
		return summary, err
	}

	err = p.stage(ctx, logger, StageClean, func() (int, error) {
		obs = domain.CleanEnvironment(obs)
		reefs = domain.CleanReefs(reefs)
		return len(obs), nil
	})
	if err != nil {
		return summary, err
	}
	if len(obs) == 0 {
		logger.Warn("no observations left after cleaning")
	}
	summary.ReefCount = len(reefs)

	var merged []domain.MergedObservation
	err = p.stage(ctx, logger, StageIntegratePH, func() (int, error) {
		merged = domain.IntegratePH(obs, ph)
		return len(merged), nil
	})
	if err != nil {
		return summary, err
	}

	err = p.stage(ctx, logger, StageSpatialMerge, func() (int, error) {
		merged = domain.SpatialMerge(merged, reefs, p.opts.ReefMatchRadiusKm)
		return len(merged), nil
	})
	if err != nil {
		return summary, err
	}

	if p.opts.FastMode && len(merged) > p.opts.MaxRowsFast {
		err = p.stage(ctx, logger, StageSample, func() (int, error) {
			merged = Sample(merged, p.opts.MaxRowsFast, p.opts.SampleSeed)
			return len(merged), nil
		})
		if err != nil {
			return summary, err
		}
		summary.Sampled = true
	}

	var scored []domain.ScoredObservation
	err = p.stage(ctx, logger, StageScore, func() (int, error) {
		scored = score(merged)
		return len(scored), nil
	})
	if err != nil {
		return summary, err
	}

	summary.Forecast, summary.ForecastPH = p.runForecast(ctx, logger, scored)

	records := make([]domain.Record, len(scored))
	for i := range scored {
		records[i] = scored[i].Record()
		if scored[i].Anomaly {
			summary.AnomalyCount++
		}
	}
	err = p.stage(ctx, logger, StagePersist, func() (int, error) {
		return len(records), p.store.Persist(ctx, records)
	})
	if err != nil {
		return summary, err
	}

	summary.RowsPersisted = len(records)
	summary.FinishedAt = domain.Now()
	p.metrics.RowsPersisted.Add(float64(len(records)))
	p.metrics.LastSuccess.Set(float64(summary.FinishedAt.Unix()))
	p.metrics.RunDuration.Observe(time.Since(started).Seconds())
	p.ready.Store(true)
	p.last.Store(&summary)

	if p.reporter != nil {
		if err := p.reporter.Report(ctx, summary); err != nil {
			logger.Warn("publish run summary failed", "error", err)
		}
	}

	logger.Info("pipeline completed successfully",
		"rows", summary.RowsPersisted,
		"anomalies", summary.AnomalyCount,
		"sst_source", summary.SSTSource,
		"forecast", summary.Forecast,
		"duration", time.Since(started),
	)
	return summary, nil
}

// stage runs fn with progress logging and stage metrics. fn reports the row
// count leaving the stage.
func (p *Pipeline) stage(ctx context.Context, logger *slog.Logger, s Stage, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info("stage started", "stage", s)
	start := time.Now()

	rows, err := fn()
	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(string(s)).Observe(elapsed.Seconds())
	if err != nil {
		p.metrics.StageFailures.WithLabelValues(string(s)).Inc()
		logger.Error("stage failed", "stage", s, "error", err)
		return fmt.Errorf("%s: %w", s, err)
	}

	p.metrics.StageRows.WithLabelValues(string(s)).Set(float64(rows))
	logger.Info("stage completed", "stage", s, "rows", rows, "duration", elapsed)
	return nil
}

// fetchReefs asks the atlas for reefs around the observations. Atlas
// failures leave the run without reef attributes.
func (p *Pipeline) fetchReefs(ctx context.Context, logger *slog.Logger, obs []domain.Observation) []domain.Reef {
	if p.atlas == nil {
		return nil
	}
	bounds, ok := domain.BoundsOf(obs)
	if !ok {
		return nil
	}
	// Pad by the match radius so reefs just outside the grid can still match.
	reefs, err := p.atlas.Reefs(ctx, bounds.Pad(p.opts.ReefMatchRadiusKm/111.0))
	if err != nil {
		p.metrics.StageFailures.WithLabelValues(string(StageFetchExtra)).Inc()
		logger.Warn("reef atlas unavailable, continuing without reef attributes", "error", err)
		return nil
	}
	return reefs
}

func score(merged []domain.MergedObservation) []domain.ScoredObservation {
	sst := make([]float64, len(merged))
	for i := range merged {
		sst[i] = merged[i].SST
	}
	anomalies := model.DetectAnomalies(sst)

	scored := make([]domain.ScoredObservation, len(merged))
	for i := range merged {
		scored[i] = domain.ScoredObservation{
			MergedObservation: merged[i],
			HealthScore:       model.HealthScore(merged[i]),
			Anomaly:           anomalies[i],
		}
	}
	return scored
}

// runForecast applies the gate and writes the first forecast value onto the
// last row by position. It never fails the run.
func (p *Pipeline) runForecast(ctx context.Context, logger *slog.Logger, scored []domain.ScoredObservation) (domain.ForecastStatus, *float64) {
	if p.opts.FastMode {
		p.metrics.ForecastRuns.WithLabelValues(string(domain.ForecastSkippedFastMode)).Inc()
		logger.Info("stage skipped", "stage", StageForecast, "reason", "fast mode")
		return domain.ForecastSkippedFastMode, nil
	}

	series := make([]float64, 0, len(scored))
	for i := range scored {
		if scored[i].PH != nil {
			series = append(series, *scored[i].PH)
		}
	}
	if len(series) < p.opts.ForecastMinObservations || len(scored) == 0 {
		p.metrics.ForecastRuns.WithLabelValues(string(domain.ForecastSkippedInsufficient)).Inc()
		logger.Info("stage skipped", "stage", StageForecast,
			"reason", "insufficient ph observations",
			"observations", len(series),
			"required", p.opts.ForecastMinObservations,
		)
		return domain.ForecastSkippedInsufficient, nil
	}

	var forecast []float64
	err := p.stage(ctx, logger, StageForecast, func() (int, error) {
		var err error
		forecast, err = p.safeForecast(ctx, series)
		if err == nil && len(forecast) == 0 {
			err = errors.New("forecaster returned no values")
		}
		return len(forecast), err
	})
	if err != nil {
		p.metrics.ForecastRuns.WithLabelValues(string(domain.ForecastFailed)).Inc()
		logger.Warn("forecast skipped for this run", "error", err)
		return domain.ForecastFailed, nil
	}

	next := forecast[0]
	scored[len(scored)-1].ForecastPH = &next
	p.metrics.ForecastRuns.WithLabelValues(string(domain.ForecastSucceeded)).Inc()
	return domain.ForecastSucceeded, &next
}

func (p *Pipeline) safeForecast(ctx context.Context, series []float64) (out []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("forecaster panicked: %v", r)
		}
	}()
	return p.forecaster.Forecast(ctx, series, p.opts.ForecastSteps)
}

func environmentProvenance(obs []domain.Observation) (sst, dhw domain.Provenance) {
	if len(obs) == 0 {
		return domain.ProvenanceAbsent, domain.ProvenanceAbsent
	}
	dhw = domain.ProvenanceAbsent
	for i := range obs {
		if obs[i].DHWSource == domain.ProvenanceObserved {
			dhw = domain.ProvenanceObserved
			break
		}
	}
	return obs[0].Source, dhw
}

func phProvenance(ph []domain.PHObservation) domain.Provenance {
	if len(ph) == 0 {
		return domain.ProvenanceAbsent
	}
	return ph[0].Source
}
