package domain

import "math"

// Plausible sea-surface temperature range in °C. CRW fill values and land
// masks decode far outside it.
const (
	minPlausibleSST = -5.0
	maxPlausibleSST = 45.0
)

type gridKey struct {
	lat float64
	lon float64
}

// CleanEnvironment drops rows with invalid coordinates or implausible SST and
// de-duplicates grid points, keeping the first occurrence. Invalid DHW values
// are reset to 0.0. The input slice is not modified.
func CleanEnvironment(obs []Observation) []Observation {
	out := make([]Observation, 0, len(obs))
	seen := make(map[gridKey]struct{}, len(obs))
	for _, o := range obs {
		if !validCoordinate(o.Latitude, o.Longitude) || !finite(o.SST) {
			continue
		}
		if o.SST < minPlausibleSST || o.SST > maxPlausibleSST {
			continue
		}
		k := gridKey{o.Latitude, o.Longitude}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if !finite(o.DHW) || o.DHW < 0 {
			o.DHW = 0
		}
		out = append(out, o)
	}
	return out
}

// CleanReefs drops reefs with an invalid centroid and de-duplicates by ID.
func CleanReefs(reefs []Reef) []Reef {
	out := make([]Reef, 0, len(reefs))
	seen := make(map[string]struct{}, len(reefs))
	for _, r := range reefs {
		if !validCoordinate(r.Latitude, r.Longitude) {
			continue
		}
		if r.ID != "" {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

func validCoordinate(lat, lon float64) bool {
	return finite(lat) && finite(lon) && lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
