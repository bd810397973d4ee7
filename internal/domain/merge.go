package domain

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// IntegratePH left-joins pH onto the observations by exact (latitude, longitude).
// Rows without a pH match keep a nil PH.
func IntegratePH(obs []Observation, ph []PHObservation) []MergedObservation {
	byPoint := make(map[gridKey]float64, len(ph))
	for _, p := range ph {
		k := gridKey{p.Latitude, p.Longitude}
		if _, ok := byPoint[k]; ok || !finite(p.PH) {
			continue
		}
		byPoint[k] = p.PH
	}

	out := make([]MergedObservation, len(obs))
	for i, o := range obs {
		out[i] = MergedObservation{
			Latitude:  o.Latitude,
			Longitude: o.Longitude,
			SST:       o.SST,
			DHW:       o.DHW,
			Date:      o.Date,
			Source:    o.Source,
		}
		if v, ok := byPoint[gridKey{o.Latitude, o.Longitude}]; ok {
			out[i].PH = &v
		}
	}
	return out
}

// SpatialMerge attaches the nearest reef within radiusKm to each observation.
// Every input row is kept; rows with no reef in range have a nil Reef.
func SpatialMerge(obs []MergedObservation, reefs []Reef, radiusKm float64) []MergedObservation {
	out := make([]MergedObservation, len(obs))
	copy(out, obs)
	if len(reefs) == 0 || radiusKm <= 0 {
		return out
	}

	idx := newReefIndex(reefs)
	for i := range out {
		if r, d, ok := idx.nearest(out[i].Latitude, out[i].Longitude, radiusKm); ok {
			out[i].Reef = &ReefAttributes{ID: r.ID, Name: r.Name, Class: r.Class, DistanceKm: d}
		}
	}
	return out
}

// reefIndex buckets reef centroids into one-degree cells.
type reefIndex struct {
	cells map[[2]int][]Reef
}

func newReefIndex(reefs []Reef) *reefIndex {
	idx := &reefIndex{cells: make(map[[2]int][]Reef)}
	for _, r := range reefs {
		k := cellOf(r.Latitude, r.Longitude)
		idx.cells[k] = append(idx.cells[k], r)
	}
	return idx
}

func cellOf(lat, lon float64) [2]int {
	return [2]int{int(math.Floor(lat)), int(math.Floor(lon))}
}

func (idx *reefIndex) nearest(lat, lon, radiusKm float64) (Reef, float64, bool) {
	// One degree of latitude is ~111 km; longitude degrees shrink with cos(lat).
	dLat := radiusKm / 111.0
	cosLat := math.Cos(lat * math.Pi / 180)
	dLon := 180.0
	if cosLat > 0.01 {
		dLon = math.Min(radiusKm/(111.0*cosLat), 180)
	}

	lo := cellOf(lat-dLat, lon-dLon)
	hi := cellOf(lat+dLat, lon+dLon)

	var (
		best     Reef
		bestDist = math.Inf(1)
		found    bool
	)
	for cy := lo[0]; cy <= hi[0]; cy++ {
		for cx := lo[1]; cx <= hi[1]; cx++ {
			for _, r := range idx.cells[[2]int{cy, cx}] {
				d := HaversineKm(lat, lon, r.Latitude, r.Longitude)
				if d <= radiusKm && d < bestDist {
					best, bestDist, found = r, d, true
				}
			}
		}
	}
	return best, bestDist, found
}
