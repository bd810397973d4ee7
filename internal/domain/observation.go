package domain

import "time"

// Provenance records where an observation's values came from.
type Provenance string

const (
	ProvenanceObserved  Provenance = "observed"
	ProvenanceSynthetic Provenance = "synthetic"
	// ProvenanceAbsent marks an optional signal that was unavailable and defaulted.
	ProvenanceAbsent Provenance = "absent"
)

// EnvironmentalRecord is one canonical measurement (SST, DHW, or pH) at a grid point.
type EnvironmentalRecord struct {
	Latitude  float64
	Longitude float64
	Value     float64
	Date      time.Time
}

// Observation is a normalized SST row with DHW joined on (latitude, longitude).
// DHW is always set; it is 0.0 when the DHW product was unavailable.
type Observation struct {
	Latitude  float64
	Longitude float64
	SST       float64
	DHW       float64
	Date      time.Time

	Source    Provenance // provenance of SST
	DHWSource Provenance
}

// PHObservation is a normalized pH row.
type PHObservation struct {
	Latitude  float64
	Longitude float64
	PH        float64
	Date      time.Time
	Source    Provenance
}

// Reef is one reef polygon from the reef atlas, reduced to its centroid and bounds.
type Reef struct {
	ID        string
	Name      string
	Class     string // geomorphic or benthic class
	Latitude  float64
	Longitude float64
	Bounds    BBox
}

// ReefAttributes are the reef fields attached to an observation by the spatial merge.
type ReefAttributes struct {
	ID         string
	Name       string
	Class      string
	DistanceKm float64
}

// MergedObservation joins an observation with pH and reef metadata.
// SST and DHW are always present; PH and Reef may be nil.
type MergedObservation struct {
	Latitude  float64
	Longitude float64
	SST       float64
	DHW       float64
	PH        *float64
	Date      time.Time
	Reef      *ReefAttributes

	Source Provenance
}

// ScoredObservation adds model outputs to a merged observation.
// ForecastPH is set on at most one row per run.
type ScoredObservation struct {
	MergedObservation
	HealthScore float64
	Anomaly     bool
	ForecastPH  *float64
}

// Record is the persisted row shape of the ocean_metrics table.
type Record struct {
	Date        time.Time
	Latitude    float64
	Longitude   float64
	SST         float64
	DHW         float64
	PH          *float64
	HealthScore float64
	Anomaly     bool
	ForecastPH  *float64
}

// Record projects the scored observation onto the persisted row shape.
func (s ScoredObservation) Record() Record {
	return Record{
		Date:        s.Date,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		SST:         s.SST,
		DHW:         s.DHW,
		PH:          s.PH,
		HealthScore: s.HealthScore,
		Anomaly:     s.Anomaly,
		ForecastPH:  s.ForecastPH,
	}
}

// BBox is an axis-aligned latitude/longitude bounding box.
type BBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Intersects reports whether two boxes overlap.
func (b BBox) Intersects(o BBox) bool {
	return b.MinLat <= o.MaxLat && b.MaxLat >= o.MinLat &&
		b.MinLon <= o.MaxLon && b.MaxLon >= o.MinLon
}

// Pad grows the box by deg on every side, clamped to valid coordinates.
func (b BBox) Pad(deg float64) BBox {
	return BBox{
		MinLat: max(b.MinLat-deg, -90),
		MaxLat: min(b.MaxLat+deg, 90),
		MinLon: max(b.MinLon-deg, -180),
		MaxLon: min(b.MaxLon+deg, 180),
	}
}

// BoundsOf returns the bounding box of the observations and false when there are none.
func BoundsOf(obs []Observation) (BBox, bool) {
	if len(obs) == 0 {
		return BBox{}, false
	}
	b := BBox{MinLat: obs[0].Latitude, MaxLat: obs[0].Latitude, MinLon: obs[0].Longitude, MaxLon: obs[0].Longitude}
	for _, o := range obs[1:] {
		b.MinLat = min(b.MinLat, o.Latitude)
		b.MaxLat = max(b.MaxLat, o.Latitude)
		b.MinLon = min(b.MinLon, o.Longitude)
		b.MaxLon = max(b.MaxLon, o.Longitude)
	}
	return b, true
}
