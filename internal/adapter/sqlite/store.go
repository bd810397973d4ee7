// Package sqlite persists scored observations to a local SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/ocean-health-etl/internal/domain"
	_ "modernc.org/sqlite"
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS ocean_metrics (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	date         TEXT NOT NULL,
	latitude     REAL NOT NULL CHECK (latitude BETWEEN -90 AND 90),
	longitude    REAL NOT NULL CHECK (longitude BETWEEN -180 AND 180),
	sst          REAL NOT NULL,
	dhw          REAL NOT NULL,
	ph           REAL,
	health_score REAL NOT NULL,
	anomaly      INTEGER NOT NULL,
	forecast_ph  REAL
);
CREATE INDEX IF NOT EXISTS idx_ocean_metrics_date ON ocean_metrics (date);`

const insertSQL = `INSERT INTO ocean_metrics
	(date, latitude, longitude, sst, dhw, ph, health_score, anomaly, forecast_ph)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Store implements pipeline.Store on a SQLite file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure ocean_metrics table: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Persist inserts every record in one transaction. Any failure rolls back the whole batch.
func (s *Store) Persist(ctx context.Context, records []domain.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err = stmt.ExecContext(ctx,
			domain.CalendarDate(r.Date).Format("2006-01-02"),
			r.Latitude, r.Longitude, r.SST, r.DHW,
			nullFloat(r.PH), r.HealthScore, r.Anomaly, nullFloat(r.ForecastPH),
		); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("records persisted", "table", "ocean_metrics", "rows", len(records))
	return nil
}

// Count returns the number of persisted rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ocean_metrics").Scan(&n); err != nil {
		return 0, fmt.Errorf("count ocean_metrics: %w", err)
	}
	return n, nil
}

// Violation is one failed integrity check.
type Violation struct {
	Check string
	Count int
}

// Validate checks the persisted table against the run invariants: no NULL
// sst or dhw, latitudes in range, and at most one forecast row per date.
func (s *Store) Validate(ctx context.Context) ([]Violation, error) {
	checks := []struct {
		name  string
		query string
	}{
		{"null_sst_or_dhw", "SELECT COUNT(*) FROM ocean_metrics WHERE sst IS NULL OR dhw IS NULL"},
		{"latitude_out_of_range", "SELECT COUNT(*) FROM ocean_metrics WHERE latitude < -90 OR latitude > 90"},
		{"health_score_out_of_range", "SELECT COUNT(*) FROM ocean_metrics WHERE health_score < 0 OR health_score > 100"},
		{"multiple_forecasts_per_date", `SELECT COUNT(*) FROM (
			SELECT date FROM ocean_metrics WHERE forecast_ph IS NOT NULL
			GROUP BY date HAVING COUNT(*) > 1)`},
	}

	var out []Violation
	for _, c := range checks {
		var n int
		if err := s.db.QueryRowContext(ctx, c.query).Scan(&n); err != nil {
			return nil, fmt.Errorf("check %s: %w", c.name, err)
		}
		if n > 0 {
			out = append(out, Violation{Check: c.name, Count: n})
		}
	}
	return out, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
