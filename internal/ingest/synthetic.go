package ingest

import (
	"time"

	"github.com/couchcryptid/ocean-health-etl/internal/domain"
)

// Fixed demo grid substituted when a remote dataset cannot be obtained.
var (
	syntheticLat = []float64{6.5, 6.6, 6.7}
	syntheticLon = []float64{92.5, 92.6, 92.7}
	syntheticSST = []float64{28.2, 28.4, 28.3}
	syntheticPH  = []float64{8.10, 8.11, 8.09}
)

// SyntheticEnvironment returns the three-point demo SST table dated date.
// It carries no DHW, so DHW is 0.0 on every row.
func SyntheticEnvironment(date time.Time) []domain.Observation {
	obs := make([]domain.Observation, len(syntheticLat))
	for i := range obs {
		obs[i] = domain.Observation{
			Latitude:  syntheticLat[i],
			Longitude: syntheticLon[i],
			SST:       syntheticSST[i],
			DHW:       0,
			Date:      date,
			Source:    domain.ProvenanceSynthetic,
			DHWSource: domain.ProvenanceAbsent,
		}
	}
	return obs
}

// SyntheticPH returns the three-point demo pH table dated date.
func SyntheticPH(date time.Time) []domain.PHObservation {
	obs := make([]domain.PHObservation, len(syntheticLat))
	for i := range obs {
		obs[i] = domain.PHObservation{
			Latitude:  syntheticLat[i],
			Longitude: syntheticLon[i],
			PH:        syntheticPH[i],
			Date:      date,
			Source:    domain.ProvenanceSynthetic,
		}
	}
	return obs
}
