package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/couchcryptid/ocean-health-etl/internal/domain"
	"github.com/couchcryptid/ocean-health-etl/internal/observability"
)

// ErrResourceNotFound is returned when no candidate date in the window could be acquired.
var ErrResourceNotFound = errors.New("no candidate date could be acquired")

// DateToken is replaced with YYYYMMDD in a Resource filename template.
const DateToken = "{date}"

// Resource describes a dated remote product.
type Resource struct {
	Name             string // metrics and log label, e.g. "sst"
	BaseURL          string
	FilenameTemplate string // e.g. "coraltemp_v3.1_{date}.nc"
	LocalPrefix      string
}

// URL renders the remote URL for date: {base}/{YYYY}/{filename}.
func (r Resource) URL(date time.Time) string {
	name := strings.ReplaceAll(r.FilenameTemplate, DateToken, date.Format("20060102"))
	return fmt.Sprintf("%s/%04d/%s", strings.TrimRight(r.BaseURL, "/"), date.Year(), name)
}

// Ext returns the part of the template after the date token, e.g. ".csv.gz".
func (r Resource) Ext() string {
	if i := strings.Index(r.FilenameTemplate, DateToken); i >= 0 {
		return r.FilenameTemplate[i+len(DateToken):]
	}
	return path.Ext(r.FilenameTemplate)
}

// Located is a resolved resource.
type Located struct {
	Path     string
	Date     time.Time
	Attempts []domain.FetchAttempt
}

// Locator finds the most recent available date of a resource within a window.
type Locator struct {
	fetcher Acquirer
	cache   *Cache
	window  int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLocator creates a Locator probing window dates back from today.
func NewLocator(f Acquirer, cache *Cache, window int, logger *slog.Logger, metrics *observability.Metrics) *Locator {
	return &Locator{fetcher: f, cache: cache, window: window, logger: logger, metrics: metrics}
}

// Locate probes candidate dates sequentially, newest first, and returns the
// first one that is cached or downloads successfully. Dates outside the
// window are never probed and no date is probed twice. It returns
// ErrResourceNotFound, along with every attempt made, when the window is exhausted.
func (l *Locator) Locate(ctx context.Context, res Resource) (Located, error) {
	var attempts []domain.FetchAttempt
	for _, date := range CandidateDates(domain.Today(), l.window) {
		if err := ctx.Err(); err != nil {
			return Located{Attempts: attempts}, err
		}

		attempt := domain.FetchAttempt{
			CandidateDate: date,
			RemoteURL:     res.URL(date),
			LocalPath:     l.cache.Path(res.LocalPrefix, date, res.Ext()),
		}
		result := l.fetcher.Acquire(ctx, attempt.RemoteURL, attempt.LocalPath)
		attempt.Outcome = result.Outcome
		attempt.Reason = result.Reason
		attempts = append(attempts, attempt)
		l.metrics.FetchAttempts.WithLabelValues(res.Name, string(result.Outcome), string(result.Reason)).Inc()

		if result.OK() {
			l.logger.Info("resource resolved",
				"resource", res.Name,
				"date", date.Format(time.DateOnly),
				"outcome", result.Outcome,
			)
			return Located{Path: attempt.LocalPath, Date: date, Attempts: attempts}, nil
		}
		l.logger.Debug("candidate date unavailable",
			"resource", res.Name,
			"date", date.Format(time.DateOnly),
			"reason", result.Reason,
			"error", result.Err,
		)
	}
	return Located{Attempts: attempts}, ErrResourceNotFound
}
