// Package postgres persists scored observations to the ocean_metrics table in Postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/ocean-health-etl/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Table is the persisted table name.
const Table = "ocean_metrics"

const schemaDDL = `CREATE TABLE IF NOT EXISTS ocean_metrics (
	id           BIGSERIAL PRIMARY KEY,
	date         DATE NOT NULL,
	latitude     DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
	longitude    DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
	sst          DOUBLE PRECISION NOT NULL,
	dhw          DOUBLE PRECISION NOT NULL,
	ph           DOUBLE PRECISION,
	health_score DOUBLE PRECISION NOT NULL,
	anomaly      BOOLEAN NOT NULL,
	forecast_ph  DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_ocean_metrics_date ON ocean_metrics (date)`

var columns = []string{"date", "latitude", "longitude", "sst", "dhw", "ph", "health_score", "anomaly", "forecast_ph"}

// Store implements pipeline.Store with a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to dsn, verifies the connection, and creates the table if needed.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Store{pool: pool, logger: logger}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the ocean_metrics table and its index if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure %s table: %w", Table, err)
	}
	return nil
}

// Persist copies every record in one transaction. Any failure rolls back the whole batch.
func (s *Store) Persist(ctx context.Context, records []domain.Record) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{Table}, columns, pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		r := records[i]
		return []any{r.Date, r.Latitude, r.Longitude, r.SST, r.DHW, r.PH, r.HealthScore, r.Anomaly, r.ForecastPH}, nil
	}))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", Table, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("records persisted", "table", Table, "rows", n)
	return nil
}

// Count returns the number of rows in the table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+Table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", Table, err)
	}
	return n, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
