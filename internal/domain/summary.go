package domain

import "time"

// ForecastStatus describes what happened to the optional forecast stage.
type ForecastStatus string

const (
	ForecastSkippedFastMode     ForecastStatus = "skipped_fast_mode"
	ForecastSkippedInsufficient ForecastStatus = "skipped_insufficient_data"
	ForecastFailed              ForecastStatus = "failed"
	ForecastSucceeded           ForecastStatus = "succeeded"
)

// RunSummary describes one completed pipeline run for downstream consumers.
type RunSummary struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	ObservationDate time.Time      `json:"observation_date"`
	SSTSource       Provenance     `json:"sst_source"`
	DHWSource       Provenance     `json:"dhw_source"`
	PHSource        Provenance     `json:"ph_source"`
	ReefCount       int            `json:"reef_count"`
	FastMode        bool           `json:"fast_mode"`
	Sampled         bool           `json:"sampled"`
	RowsPersisted   int            `json:"rows_persisted"`
	AnomalyCount    int            `json:"anomaly_count"`
	Forecast        ForecastStatus `json:"forecast"`
	ForecastPH      *float64       `json:"forecast_ph,omitempty"`
}

// Degraded reports whether any mandatory signal was substituted with synthetic data.
func (s RunSummary) Degraded() bool {
	return s.SSTSource != ProvenanceObserved
}
