// Package ingest turns downloaded NOAA files into normalized observation tables.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/ocean-health-etl/internal/acquire"
	"github.com/couchcryptid/ocean-health-etl/internal/dataset"
	"github.com/couchcryptid/ocean-health-etl/internal/domain"
	"github.com/couchcryptid/ocean-health-etl/internal/observability"
)

// ErrVariableNotFound is returned when no candidate name for a mandatory variable is present.
var ErrVariableNotFound = errors.New("variable not found")

// Locator resolves the most recent available file of a dated resource.
type Locator interface {
	Locate(ctx context.Context, res acquire.Resource) (acquire.Located, error)
}

// Sources configures where each dataset comes from.
type Sources struct {
	SST acquire.Resource
	DHW acquire.Resource

	PHURL       string // empty disables the pH fetch
	PHLocalPath string
}

// Normalizer produces the environmental and pH tables for one run.
type Normalizer struct {
	locator   Locator
	phFetcher acquire.Acquirer
	decoder   dataset.Decoder
	sources   Sources
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewNormalizer creates a Normalizer. phFetcher is used only for the undated pH file.
func NewNormalizer(locator Locator, phFetcher acquire.Acquirer, dec dataset.Decoder, src Sources, logger *slog.Logger, metrics *observability.Metrics) *Normalizer {
	return &Normalizer{
		locator:   locator,
		phFetcher: phFetcher,
		decoder:   dec,
		sources:   src,
		logger:    logger,
		metrics:   metrics,
	}
}

// Environment returns SST observations with DHW joined on (latitude, longitude).
// When no SST file can be located it returns the synthetic demo table. A located
// file without a recognizable SST variable is fatal and wraps ErrVariableNotFound.
func (n *Normalizer) Environment(ctx context.Context) ([]domain.Observation, error) {
	located, err := n.locator.Locate(ctx, n.sources.SST)
	if errors.Is(err, acquire.ErrResourceNotFound) {
		n.logger.Warn("sst unavailable, using synthetic data",
			"attempts", len(located.Attempts),
			"base_url", n.sources.SST.BaseURL,
		)
		n.metrics.SyntheticFallbacks.WithLabelValues("sst").Inc()
		return SyntheticEnvironment(domain.Today()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("locate sst: %w", err)
	}

	frame, err := dataset.DecodeFile(n.decoder, located.Path)
	if err != nil {
		return nil, fmt.Errorf("sst dataset: %w", err)
	}
	lat, lon, err := coordinates(frame)
	if err != nil {
		return nil, fmt.Errorf("sst dataset %s: %w", located.Path, err)
	}
	sstName, ok := dataset.Resolve(frame.Columns(), dataset.SSTCandidates...)
	if !ok {
		return nil, fmt.Errorf("sst dataset %s: %w: none of %v in %v",
			located.Path, ErrVariableNotFound, dataset.SSTCandidates, frame.Columns())
	}
	sst := frame.Column(sstName)

	obs := make([]domain.Observation, frame.Len())
	for i := range obs {
		obs[i] = domain.Observation{
			Latitude:  lat[i],
			Longitude: lon[i],
			SST:       sst[i],
			Date:      located.Date,
			Source:    domain.ProvenanceObserved,
			DHWSource: domain.ProvenanceAbsent,
		}
	}
	n.logger.Info("sst normalized", "rows", len(obs), "variable", sstName, "date", located.Date.Format("2006-01-02"))

	if err := n.joinDHW(ctx, obs); err != nil {
		return nil, err
	}
	return obs, nil
}

// joinDHW fills DHW in place. Any DHW problem short of cancellation leaves
// the default of 0.0.
func (n *Normalizer) joinDHW(ctx context.Context, obs []domain.Observation) error {
	located, err := n.locator.Locate(ctx, n.sources.DHW)
	if errors.Is(err, acquire.ErrResourceNotFound) {
		n.logger.Warn("dhw unavailable, defaulting to 0.0", "attempts", len(located.Attempts))
		return nil
	}
	if err != nil {
		return fmt.Errorf("locate dhw: %w", err)
	}

	frame, err := dataset.DecodeFile(n.decoder, located.Path)
	if err != nil {
		n.logger.Warn("dhw dataset unreadable, defaulting to 0.0", "path", located.Path, "error", err)
		return nil
	}
	lat, lon, err := coordinates(frame)
	if err != nil {
		n.logger.Warn("dhw dataset has no coordinates, defaulting to 0.0", "path", located.Path, "error", err)
		return nil
	}
	dhwName, ok := dataset.Resolve(frame.Columns(), dataset.DHWCandidates...)
	if !ok {
		n.logger.Warn("dhw variable not found, defaulting to 0.0", "columns", frame.Columns())
		return nil
	}
	dhw := frame.Column(dhwName)

	type point struct{ lat, lon float64 }
	byPoint := make(map[point]float64, frame.Len())
	for i := range dhw {
		p := point{lat[i], lon[i]}
		if _, dup := byPoint[p]; !dup {
			byPoint[p] = dhw[i]
		}
	}

	matched := 0
	for i := range obs {
		if v, ok := byPoint[point{obs[i].Latitude, obs[i].Longitude}]; ok {
			obs[i].DHW = v
			obs[i].DHWSource = domain.ProvenanceObserved
			matched++
		}
	}
	n.logger.Info("dhw joined", "rows", frame.Len(), "matched", matched, "date", located.Date.Format("2006-01-02"))
	return nil
}

// PH returns pH observations dated today. Every failure falls back to the
// synthetic demo table; only context cancellation is returned as an error.
func (n *Normalizer) PH(ctx context.Context) ([]domain.PHObservation, error) {
	today := domain.Today()
	if n.sources.PHURL == "" {
		n.logger.Info("ph source not configured, using synthetic data")
		n.metrics.SyntheticFallbacks.WithLabelValues("ph").Inc()
		return SyntheticPH(today), nil
	}

	res := n.phFetcher.Acquire(ctx, n.sources.PHURL, n.sources.PHLocalPath)
	n.metrics.FetchAttempts.WithLabelValues("ph", string(res.Outcome), string(res.Reason)).Inc()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obs, err := n.readPH(res, today)
	if err != nil {
		n.logger.Warn("ph unavailable, using synthetic data", "url", n.sources.PHURL, "error", err)
		n.metrics.SyntheticFallbacks.WithLabelValues("ph").Inc()
		return SyntheticPH(today), nil
	}
	return obs, nil
}

func (n *Normalizer) readPH(res acquire.Result, today time.Time) ([]domain.PHObservation, error) {
	if !res.OK() {
		return nil, fmt.Errorf("acquire ph (%s): %w", res.Reason, res.Err)
	}
	frame, err := dataset.DecodeFile(n.decoder, n.sources.PHLocalPath)
	if err != nil {
		return nil, err
	}
	lat, lon, err := coordinates(frame)
	if err != nil {
		return nil, err
	}
	name, ok := dataset.Resolve(frame.Columns(), dataset.PHCandidates...)
	if !ok {
		return nil, fmt.Errorf("ph: %w: none of %v in %v", ErrVariableNotFound, dataset.PHCandidates, frame.Columns())
	}
	ph := frame.Column(name)

	obs := make([]domain.PHObservation, frame.Len())
	for i := range obs {
		obs[i] = domain.PHObservation{
			Latitude:  lat[i],
			Longitude: lon[i],
			PH:        ph[i],
			Date:      today,
			Source:    domain.ProvenanceObserved,
		}
	}
	n.logger.Info("ph normalized", "rows", len(obs), "variable", name)
	return obs, nil
}

func coordinates(f *dataset.Frame) (lat, lon []float64, err error) {
	latName, ok := dataset.Resolve(f.Columns(), dataset.LatitudeCandidates...)
	if !ok {
		return nil, nil, fmt.Errorf("latitude: %w", ErrVariableNotFound)
	}
	lonName, ok := dataset.Resolve(f.Columns(), dataset.LongitudeCandidates...)
	if !ok {
		return nil, nil, fmt.Errorf("longitude: %w", ErrVariableNotFound)
	}
	return f.Column(latName), f.Column(lonName), nil
}
