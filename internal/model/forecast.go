package model

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrSeriesTooShort is returned when a series cannot support a trend model.
var ErrSeriesTooShort = errors.New("series too short")

// HoltModel is Holt's linear-trend exponential smoothing with fitted weights.
type HoltModel struct {
	Alpha float64 // level smoothing
	Beta  float64 // trend smoothing
}

// HoltForecaster trains a HoltModel by grid search and forecasts from it.
type HoltForecaster struct{}

// Forecast trains on series and returns steps values ahead of its last element.
func (HoltForecaster) Forecast(ctx context.Context, series []float64, steps int) ([]float64, error) {
	m, err := Train(ctx, series)
	if err != nil {
		return nil, err
	}
	return m.Forecast(series, steps)
}

// Train picks the smoothing weights that minimize one-step-ahead squared error.
func Train(ctx context.Context, series []float64) (*HoltModel, error) {
	if err := validateSeries(series); err != nil {
		return nil, err
	}

	best := &HoltModel{}
	bestSSE := math.Inf(1)
	for a := 1; a <= 9; a++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for b := 1; b <= 9; b++ {
			m := HoltModel{Alpha: float64(a) / 10, Beta: float64(b) / 10}
			if sse := m.sse(series); sse < bestSSE {
				bestSSE = sse
				*best = m
			}
		}
	}
	return best, nil
}

// Forecast smooths series with the model weights and extrapolates the final trend.
func (m *HoltModel) Forecast(series []float64, steps int) ([]float64, error) {
	if err := validateSeries(series); err != nil {
		return nil, err
	}
	if steps <= 0 {
		return nil, fmt.Errorf("forecast steps must be positive, got %d", steps)
	}
	level, trend := m.smooth(series, nil)
	out := make([]float64, steps)
	for h := range out {
		out[h] = level + float64(h+1)*trend
	}
	return out, nil
}

func (m *HoltModel) sse(series []float64) float64 {
	var sse float64
	m.smooth(series, func(predicted, actual float64) {
		sse += (actual - predicted) * (actual - predicted)
	})
	return sse
}

// smooth runs the recursion and reports each one-step-ahead prediction to observe.
func (m *HoltModel) smooth(series []float64, observe func(predicted, actual float64)) (level, trend float64) {
	level = series[0]
	trend = series[1] - series[0]
	for _, y := range series[1:] {
		predicted := level + trend
		if observe != nil {
			observe(predicted, y)
		}
		prev := level
		level = m.Alpha*y + (1-m.Alpha)*(level+trend)
		trend = m.Beta*(level-prev) + (1-m.Beta)*trend
	}
	return level, trend
}

func validateSeries(series []float64) error {
	if len(series) < 2 {
		return fmt.Errorf("%w: %d values", ErrSeriesTooShort, len(series))
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("series value %d is not finite", i)
		}
	}
	return nil
}
