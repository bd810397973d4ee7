package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultSSTBaseURL, cfg.SSTBaseURL)
	assert.Equal(t, defaultDHWBaseURL, cfg.DHWBaseURL)
	assert.Empty(t, cfg.PHURL)
	assert.Equal(t, "csv", cfg.DatasetFormat)
	assert.Equal(t, "data/cache", cfg.CacheDir)
	assert.Equal(t, 3, cfg.FetchWindowDays)
	assert.Equal(t, 60*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 30*time.Second, cfg.PHFetchTimeout)
	assert.Equal(t, uint32(3), cfg.BreakerMaxFailures)
	assert.True(t, cfg.FastMode)
	assert.Equal(t, 5000, cfg.MaxRowsFast)
	assert.Equal(t, uint64(42), cfg.SampleSeed)
	assert.Equal(t, 30, cfg.ForecastMinObservations)
	assert.Equal(t, 7, cfg.ForecastSteps)
	assert.Empty(t, cfg.ReefAtlasPath)
	assert.InDelta(t, 25.0, cfg.ReefMatchRadiusKm, 1e-9)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "postgres://localhost:5432/ocean_db?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "data/ocean.db", cfg.SQLitePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "ocean-health-runs", cfg.KafkaRunTopic)
	assert.Empty(t, cfg.ArchiveS3Bucket)
	assert.Equal(t, "us-east-1", cfg.ArchiveS3Region)
	assert.False(t, cfg.ArchiveS3PathStyle)
	assert.Equal(t, "noaa/", cfg.ArchiveS3Prefix)
	assert.Empty(t, cfg.Schedule)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("NOAA_SST_BASE_URL", "http://mirror.local/sst")
	t.Setenv("NOAA_DHW_BASE_URL", "http://mirror.local/dhw")
	t.Setenv("NOAA_PH_URL", "http://mirror.local/ph/latest.csv")
	t.Setenv("DATASET_FORMAT", "CSV.GZ")
	t.Setenv("CACHE_DIR", "/var/cache/ocean")
	t.Setenv("FETCH_WINDOW_DAYS", "5")
	t.Setenv("FETCH_TIMEOUT", "2m")
	t.Setenv("PH_FETCH_TIMEOUT", "15s")
	t.Setenv("BREAKER_MAX_FAILURES", "5")
	t.Setenv("FAST_MODE", "false")
	t.Setenv("MAX_ROWS_FAST", "100")
	t.Setenv("SAMPLE_SEED", "7")
	t.Setenv("FORECAST_MIN_OBSERVATIONS", "10")
	t.Setenv("FORECAST_STEPS", "3")
	t.Setenv("REEF_ATLAS_PATH", "/data/reefs.shp")
	t.Setenv("REEF_MATCH_RADIUS_KM", "12.5")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/ocean.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgateway:9091")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_RUN_TOPIC", "custom-runs")
	t.Setenv("ARCHIVE_S3_BUCKET", "noaa-cache")
	t.Setenv("ARCHIVE_S3_REGION", "eu-west-1")
	t.Setenv("ARCHIVE_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("ARCHIVE_S3_PATH_STYLE", "true")
	t.Setenv("ARCHIVE_S3_PREFIX", "crw/")
	t.Setenv("SCHEDULE", "0 6 * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://mirror.local/sst", cfg.SSTBaseURL)
	assert.Equal(t, "http://mirror.local/dhw", cfg.DHWBaseURL)
	assert.Equal(t, "http://mirror.local/ph/latest.csv", cfg.PHURL)
	assert.Equal(t, "csv.gz", cfg.DatasetFormat)
	assert.Equal(t, "/var/cache/ocean", cfg.CacheDir)
	assert.Equal(t, 5, cfg.FetchWindowDays)
	assert.Equal(t, 2*time.Minute, cfg.FetchTimeout)
	assert.Equal(t, 15*time.Second, cfg.PHFetchTimeout)
	assert.Equal(t, uint32(5), cfg.BreakerMaxFailures)
	assert.False(t, cfg.FastMode)
	assert.Equal(t, 100, cfg.MaxRowsFast)
	assert.Equal(t, uint64(7), cfg.SampleSeed)
	assert.Equal(t, 10, cfg.ForecastMinObservations)
	assert.Equal(t, 3, cfg.ForecastSteps)
	assert.Equal(t, "/data/reefs.shp", cfg.ReefAtlasPath)
	assert.InDelta(t, 12.5, cfg.ReefMatchRadiusKm, 1e-9)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "/tmp/ocean.db", cfg.SQLitePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://pushgateway:9091", cfg.PushgatewayURL)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-runs", cfg.KafkaRunTopic)
	assert.Equal(t, "noaa-cache", cfg.ArchiveS3Bucket)
	assert.Equal(t, "eu-west-1", cfg.ArchiveS3Region)
	assert.Equal(t, "http://minio:9000", cfg.ArchiveS3Endpoint)
	assert.True(t, cfg.ArchiveS3PathStyle)
	assert.Equal(t, "crw/", cfg.ArchiveS3Prefix)
	assert.Equal(t, "0 6 * * *", cfg.Schedule)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, "SHUTDOWN_TIMEOUT"},
		{"window not a number", map[string]string{"FETCH_WINDOW_DAYS": "three"}, "FETCH_WINDOW_DAYS"},
		{"window zero", map[string]string{"FETCH_WINDOW_DAYS": "0"}, "FETCH_WINDOW_DAYS"},
		{"window too large", map[string]string{"FETCH_WINDOW_DAYS": "31"}, "FETCH_WINDOW_DAYS"},
		{"fetch timeout", map[string]string{"FETCH_TIMEOUT": "soon"}, "FETCH_TIMEOUT"},
		{"zero fetch timeout", map[string]string{"FETCH_TIMEOUT": "0s"}, "FETCH_TIMEOUT"},
		{"ph timeout", map[string]string{"PH_FETCH_TIMEOUT": "-5s"}, "PH_FETCH_TIMEOUT"},
		{"breaker", map[string]string{"BREAKER_MAX_FAILURES": "0"}, "BREAKER_MAX_FAILURES"},
		{"fast mode", map[string]string{"FAST_MODE": "maybe"}, "FAST_MODE"},
		{"max rows", map[string]string{"MAX_ROWS_FAST": "0"}, "MAX_ROWS_FAST"},
		{"seed", map[string]string{"SAMPLE_SEED": "-1"}, "SAMPLE_SEED"},
		{"forecast min", map[string]string{"FORECAST_MIN_OBSERVATIONS": "1"}, "FORECAST_MIN_OBSERVATIONS"},
		{"forecast steps", map[string]string{"FORECAST_STEPS": "0"}, "FORECAST_STEPS"},
		{"radius", map[string]string{"REEF_MATCH_RADIUS_KM": "0"}, "REEF_MATCH_RADIUS_KM"},
		{"radius not a number", map[string]string{"REEF_MATCH_RADIUS_KM": "far"}, "REEF_MATCH_RADIUS_KM"},
		{"dataset format", map[string]string{"DATASET_FORMAT": "netcdf"}, "DATASET_FORMAT"},
		{"store driver", map[string]string{"STORE_DRIVER": "mysql"}, "STORE_DRIVER"},
		{"sst url", map[string]string{"NOAA_SST_BASE_URL": "not a url"}, "NOAA_SST_BASE_URL"},
		{"ph url", map[string]string{"NOAA_PH_URL": "ftp//broken"}, "NOAA_PH_URL"},
		{"metrics addr", map[string]string{"METRICS_ADDR": "9090"}, "METRICS_ADDR"},
		{"pushgateway", map[string]string{"PUSHGATEWAY_URL": "pushgateway"}, "PUSHGATEWAY_URL"},
		{"schedule", map[string]string{"SCHEDULE": "every morning"}, "SCHEDULE"},
		{"path style", map[string]string{"ARCHIVE_S3_PATH_STYLE": "yes please"}, "ARCHIVE_S3_PATH_STYLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_SQLiteRequiresPath(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "")

	// EnvOrDefault treats empty as unset, so the default path applies.
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data/ocean.db", cfg.SQLitePath)
}

func TestDescribe_Required(t *testing.T) {
	cfg := &Config{
		SSTBaseURL:              defaultSSTBaseURL,
		DHWBaseURL:              defaultDHWBaseURL,
		DatasetFormat:           "csv",
		CacheDir:                "data/cache",
		FetchWindowDays:         3,
		FetchTimeout:            time.Second,
		PHFetchTimeout:          time.Second,
		BreakerMaxFailures:      1,
		MaxRowsFast:             1,
		ForecastMinObservations: 2,
		ForecastSteps:           1,
		ReefMatchRadiusKm:       1,
		StoreDriver:             "postgres",
	}
	err := describe(validate.Struct(cfg))
	require.Error(t, err)
	assert.Equal(t, "DATABASE_URL is required", err.Error())

	cfg.DatabaseURL = "postgres://localhost/ocean_db"
	cfg.ArchiveS3Bucket = "bucket"
	err = describe(validate.Struct(cfg))
	require.Error(t, err)
	assert.Equal(t, "ARCHIVE_S3_REGION is required", err.Error())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FETCH_WINDOW_DAYS=7\nLOG_LEVEL=warn\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("LOG_LEVEL", "error")
	t.Cleanup(func() { _ = os.Unsetenv("FETCH_WINDOW_DAYS") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.FetchWindowDays)
	assert.Equal(t, "error", cfg.LogLevel, "process environment wins over .env")
}
