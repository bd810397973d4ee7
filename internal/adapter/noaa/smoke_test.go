//go:build noaa

package noaa

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/ocean-health-etl/internal/acquire"
	"github.com/couchcryptid/ocean-health-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real NOAA Coral Reef Watch archive.
// Run with: go test -tags=noaa ./internal/adapter/noaa/ -v -count=1

const smokeSSTBase = "https://www.star.nesdis.noaa.gov/pub/socd/mecb/crw/data/5km/v3.1_op/nc/v1.0/daily/sst"

func TestSmoke_LocateLatestSST(t *testing.T) {
	base := smokeSSTBase
	if v := os.Getenv("NOAA_SST_BASE_URL"); v != "" {
		base = v
	}

	client := NewClient("sst", 120*time.Second, 3, discardLogger())
	cache := acquire.NewCache(t.TempDir())
	locator := acquire.NewLocator(
		acquire.NewFetcher(client, nil, discardLogger()),
		cache, 5, discardLogger(), observability.NewMetricsForTesting(),
	)

	got, err := locator.Locate(context.Background(), acquire.Resource{
		Name:             "sst",
		BaseURL:          base,
		FilenameTemplate: "coraltemp_v3.1_{date}.nc",
		LocalPrefix:      "SST",
	})
	require.NoError(t, err)

	info, err := os.Stat(got.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(1<<20), "daily global grid should be several MB")
	assert.WithinDuration(t, time.Now(), got.Date, 6*24*time.Hour)
}

func TestSmoke_MissingFutureFile(t *testing.T) {
	client := NewClient("sst", 30*time.Second, 3, discardLogger())
	future := time.Now().AddDate(1, 0, 0)
	res := acquire.Resource{BaseURL: smokeSSTBase, FilenameTemplate: "coraltemp_v3.1_{date}.nc"}

	err := client.Fetch(context.Background(), res.URL(future), io.Discard)
	assert.Error(t, err)
}
