package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 0, HaversineKm(10, 20, 10, 20), 1e-9)
	// One degree of latitude along a meridian.
	assert.InDelta(t, 111.19, HaversineKm(0, 0, 1, 0), 0.01)
	// Sydney to Melbourne.
	assert.InDelta(t, 713, HaversineKm(-33.8688, 151.2093, -37.8136, 144.9631), 5)
}

func TestIntegratePH(t *testing.T) {
	day := time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC)
	obs := []Observation{
		{Latitude: 6.5, Longitude: 92.5, SST: 28.2, Date: day, Source: ProvenanceObserved},
		{Latitude: 6.6, Longitude: 92.6, SST: 28.4, Date: day, Source: ProvenanceObserved},
	}
	ph := []PHObservation{
		{Latitude: 6.5, Longitude: 92.5, PH: 8.10},
		{Latitude: 6.5, Longitude: 92.5, PH: 7.90},
		{Latitude: 1, Longitude: 1, PH: 8.2},
	}

	got := IntegratePH(obs, ph)

	require.Len(t, got, 2, "left join keeps every observation")
	require.NotNil(t, got[0].PH)
	assert.Equal(t, 8.10, *got[0].PH)
	assert.Nil(t, got[1].PH)
	assert.Equal(t, 28.4, got[1].SST)
	assert.Equal(t, ProvenanceObserved, got[1].Source)
}

func TestIntegratePH_NoPH(t *testing.T) {
	got := IntegratePH([]Observation{{Latitude: 1, Longitude: 2, SST: 27}}, nil)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].PH)
}

func TestSpatialMerge(t *testing.T) {
	obs := []MergedObservation{
		{Latitude: -18.30, Longitude: 147.70, SST: 27},
		{Latitude: -18.00, Longitude: 150.00, SST: 27},
		{Latitude: 0.999, Longitude: 0.999, SST: 27},
	}
	reefs := []Reef{
		{ID: "near", Name: "Near Reef", Class: "Reef Slope", Latitude: -18.32, Longitude: 147.71},
		{ID: "farther", Latitude: -18.40, Longitude: 147.80},
		// Across a cell boundary from the third observation.
		{ID: "edge", Latitude: 1.001, Longitude: 1.001},
	}

	got := SpatialMerge(obs, reefs, 25)

	require.Len(t, got, 3)
	require.NotNil(t, got[0].Reef)
	assert.Equal(t, "near", got[0].Reef.ID)
	assert.Equal(t, "Near Reef", got[0].Reef.Name)
	assert.Equal(t, "Reef Slope", got[0].Reef.Class)
	assert.Less(t, got[0].Reef.DistanceKm, 3.0)
	assert.Nil(t, got[1].Reef, "no reef within radius")
	require.NotNil(t, got[2].Reef)
	assert.Equal(t, "edge", got[2].Reef.ID)
	assert.Nil(t, obs[0].Reef, "input must not be modified")
}

func TestSpatialMerge_NoReefs(t *testing.T) {
	obs := []MergedObservation{{Latitude: 1, Longitude: 1}}
	got := SpatialMerge(obs, nil, 25)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Reef)
}

func TestBBox(t *testing.T) {
	b, ok := BoundsOf([]Observation{
		{Latitude: 6.5, Longitude: 92.5},
		{Latitude: 6.7, Longitude: 92.7},
	})
	require.True(t, ok)
	assert.Equal(t, BBox{MinLat: 6.5, MaxLat: 6.7, MinLon: 92.5, MaxLon: 92.7}, b)
	assert.True(t, b.Contains(6.6, 92.6))
	assert.False(t, b.Contains(6.8, 92.6))

	padded := b.Pad(1)
	assert.True(t, padded.Intersects(BBox{MinLat: 7.5, MaxLat: 8, MinLon: 93, MaxLon: 94}))
	assert.False(t, b.Intersects(BBox{MinLat: 7.5, MaxLat: 8, MinLon: 93, MaxLon: 94}))

	assert.Equal(t, -90.0, BBox{MinLat: -89.5}.Pad(1).MinLat)

	_, ok = BoundsOf(nil)
	assert.False(t, ok)
}
