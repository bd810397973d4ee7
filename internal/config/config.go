package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultSSTBaseURL = "https://www.star.nesdis.noaa.gov/pub/socd/mecb/crw/data/5km/v3.1_op/nc/v1.0/daily/sst"
	defaultDHWBaseURL = "https://www.star.nesdis.noaa.gov/pub/socd/mecb/crw/data/5km/v3.1_op/nc/v1.0/daily/dhw"
)

// Config holds all job settings, populated from environment variables.
type Config struct {
	// Upstream datasets.
	SSTBaseURL    string `env:"NOAA_SST_BASE_URL" validate:"required,url"`
	DHWBaseURL    string `env:"NOAA_DHW_BASE_URL" validate:"required,url"`
	PHURL         string `env:"NOAA_PH_URL" validate:"omitempty,url"`
	DatasetFormat string `env:"DATASET_FORMAT" validate:"oneof=csv csv.gz"`

	// Acquisition.
	CacheDir           string        `env:"CACHE_DIR" validate:"required"`
	FetchWindowDays    int           `env:"FETCH_WINDOW_DAYS" validate:"min=1,max=30"`
	FetchTimeout       time.Duration `env:"FETCH_TIMEOUT" validate:"gt=0"`
	PHFetchTimeout     time.Duration `env:"PH_FETCH_TIMEOUT" validate:"gt=0"`
	BreakerMaxFailures uint32        `env:"BREAKER_MAX_FAILURES" validate:"min=1"`

	// Pipeline.
	FastMode                bool    `env:"FAST_MODE"`
	MaxRowsFast             int     `env:"MAX_ROWS_FAST" validate:"min=1"`
	SampleSeed              uint64  `env:"SAMPLE_SEED"`
	ForecastMinObservations int     `env:"FORECAST_MIN_OBSERVATIONS" validate:"min=2"`
	ForecastSteps           int     `env:"FORECAST_STEPS" validate:"min=1"`
	ReefAtlasPath           string  `env:"REEF_ATLAS_PATH"`
	ReefMatchRadiusKm       float64 `env:"REEF_MATCH_RADIUS_KM" validate:"gt=0"`

	// Persistence.
	StoreDriver string `env:"STORE_DRIVER" validate:"oneof=postgres sqlite"`
	DatabaseURL string `env:"DATABASE_URL" validate:"required_if=StoreDriver postgres"`
	SQLitePath  string `env:"SQLITE_PATH" validate:"required_if=StoreDriver sqlite"`

	// Observability.
	LogLevel        string        `env:"LOG_LEVEL"`
	LogFormat       string        `env:"LOG_FORMAT"`
	MetricsAddr     string        `env:"METRICS_ADDR" validate:"omitempty,hostname_port"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	PushgatewayURL  string        `env:"PUSHGATEWAY_URL" validate:"omitempty,url"`

	// Run summary publishing.
	KafkaBrokers  []string `env:"KAFKA_BROKERS"`
	KafkaRunTopic string   `env:"KAFKA_RUN_TOPIC" validate:"required_with=KafkaBrokers"`

	// Cache archive.
	ArchiveS3Bucket    string `env:"ARCHIVE_S3_BUCKET"`
	ArchiveS3Region    string `env:"ARCHIVE_S3_REGION" validate:"required_with=ArchiveS3Bucket"`
	ArchiveS3Endpoint  string `env:"ARCHIVE_S3_ENDPOINT" validate:"omitempty,url"`
	ArchiveS3PathStyle bool   `env:"ARCHIVE_S3_PATH_STYLE"`
	ArchiveS3Prefix    string `env:"ARCHIVE_S3_PREFIX"`

	// Schedule is a cron expression; empty runs the pipeline once and exits.
	Schedule string `env:"SCHEDULE" validate:"omitempty,cron"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		SSTBaseURL:    sharedcfg.EnvOrDefault("NOAA_SST_BASE_URL", defaultSSTBaseURL),
		DHWBaseURL:    sharedcfg.EnvOrDefault("NOAA_DHW_BASE_URL", defaultDHWBaseURL),
		PHURL:         os.Getenv("NOAA_PH_URL"),
		DatasetFormat: strings.ToLower(sharedcfg.EnvOrDefault("DATASET_FORMAT", "csv")),

		CacheDir:           sharedcfg.EnvOrDefault("CACHE_DIR", "data/cache"),
		FetchWindowDays:    p.int("FETCH_WINDOW_DAYS", 3),
		FetchTimeout:       p.duration("FETCH_TIMEOUT", "60s"),
		PHFetchTimeout:     p.duration("PH_FETCH_TIMEOUT", "30s"),
		BreakerMaxFailures: uint32(p.int("BREAKER_MAX_FAILURES", 3)),

		FastMode:                p.bool("FAST_MODE", true),
		MaxRowsFast:             p.int("MAX_ROWS_FAST", 5000),
		SampleSeed:              p.uint64("SAMPLE_SEED", 42),
		ForecastMinObservations: p.int("FORECAST_MIN_OBSERVATIONS", 30),
		ForecastSteps:           p.int("FORECAST_STEPS", 7),
		ReefAtlasPath:           os.Getenv("REEF_ATLAS_PATH"),
		ReefMatchRadiusKm:       p.float("REEF_MATCH_RADIUS_KM", 25),

		StoreDriver: strings.ToLower(sharedcfg.EnvOrDefault("STORE_DRIVER", "postgres")),
		DatabaseURL: sharedcfg.EnvOrDefault("DATABASE_URL", "postgres://localhost:5432/ocean_db?sslmode=disable"),
		SQLitePath:  sharedcfg.EnvOrDefault("SQLITE_PATH", "data/ocean.db"),

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		ShutdownTimeout: shutdownTimeout,
		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),

		KafkaBrokers:  sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaRunTopic: sharedcfg.EnvOrDefault("KAFKA_RUN_TOPIC", "ocean-health-runs"),

		ArchiveS3Bucket:    os.Getenv("ARCHIVE_S3_BUCKET"),
		ArchiveS3Region:    sharedcfg.EnvOrDefault("ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Endpoint:  os.Getenv("ARCHIVE_S3_ENDPOINT"),
		ArchiveS3PathStyle: p.bool("ARCHIVE_S3_PATH_STYLE", false),
		ArchiveS3Prefix:    sharedcfg.EnvOrDefault("ARCHIVE_S3_PREFIX", "noaa/"),

		Schedule: os.Getenv("SCHEDULE"),
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, describe(err)
	}
	return cfg, nil
}

// describe turns the first validation failure into an error naming the variable.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return fmt.Errorf("%s is required", fe.Field())
	case "oneof":
		return fmt.Errorf("invalid %s: must be one of %s", fe.Field(), fe.Param())
	case "min", "max", "gt":
		return fmt.Errorf("invalid %s: must be %s %s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return fmt.Errorf("invalid %s: %s", fe.Field(), fe.Tag())
	}
}

// parser reads typed variables and keeps the first error.
type parser struct {
	err error
}

func (p *parser) fail(key string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s", key)
	}
}

func (p *parser) int(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.fail(key)
		return def
	}
	return n
}

func (p *parser) uint64(key string, def uint64) uint64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		p.fail(key)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(key)
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(key)
		return def
	}
	return b
}

func (p *parser) duration(key, def string) time.Duration {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		p.fail(key)
		return 0
	}
	return d
}
