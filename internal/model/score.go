// Package model scores observations and forecasts the pH series.
package model

import (
	"math"

	"github.com/couchcryptid/ocean-health-etl/internal/domain"
)

// Health score thresholds. Corals bleach above roughly 1°C over the summer
// maximum; DHW of 4 signals significant bleaching and 8 mortality.
const (
	sstStressC    = 29.0
	sstPenaltyPer = 10.0
	sstPenaltyMax = 30.0

	dhwPenaltyPer = 5.0
	dhwPenaltyMax = 40.0

	phHealthy     = 8.1
	phPenaltyPer  = 100.0
	phPenaltyMax  = 30.0
	anomalyZScore = 2.0
)

// HealthScore rates an observation from 0 (critical) to 100 (healthy).
// A null pH carries no penalty.
func HealthScore(o domain.MergedObservation) float64 {
	score := 100.0
	if o.SST > sstStressC {
		score -= math.Min((o.SST-sstStressC)*sstPenaltyPer, sstPenaltyMax)
	}
	if o.DHW > 0 {
		score -= math.Min(o.DHW*dhwPenaltyPer, dhwPenaltyMax)
	}
	if o.PH != nil && *o.PH < phHealthy {
		score -= math.Min((phHealthy-*o.PH)*phPenaltyPer, phPenaltyMax)
	}
	return math.Round(math.Max(0, math.Min(100, score))*100) / 100
}

// DetectAnomalies flags values more than two standard deviations from the mean.
// Series shorter than three values or with zero variance have no anomalies.
func DetectAnomalies(values []float64) []bool {
	flags := make([]bool, len(values))
	if len(values) < 3 {
		return flags
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / float64(len(values)))
	if std == 0 || math.IsNaN(std) {
		return flags
	}

	for i, v := range values {
		flags[i] = math.Abs(v-mean)/std > anomalyZScore
	}
	return flags
}
