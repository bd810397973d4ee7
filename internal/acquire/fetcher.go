package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/couchcryptid/ocean-health-etl/internal/domain"
)

// Transport streams the body of a remote resource into w. Implementations
// return domain.ErrNotFound, *domain.StatusError, or domain.ErrCircuitOpen
// for the failures they can classify.
type Transport interface {
	Fetch(ctx context.Context, url string, w io.Writer) error
}

// Archiver mirrors freshly downloaded files to secondary storage.
type Archiver interface {
	Archive(ctx context.Context, localPath string) error
}

// Acquirer makes a remote resource available at a local path.
type Acquirer interface {
	Acquire(ctx context.Context, url, localPath string) Result
}

// Result is the typed outcome of one acquisition.
type Result struct {
	Outcome domain.FetchOutcome
	Reason  domain.FailureReason
	Err     error
}

// OK reports whether the file is available locally.
func (r Result) OK() bool {
	return r.Outcome == domain.OutcomeCached || r.Outcome == domain.OutcomeDownloaded
}

// Fetcher downloads resources that are not already cached. A downloaded file
// is written whole or not at all.
type Fetcher struct {
	transport Transport
	archiver  Archiver
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher. archiver may be nil.
func NewFetcher(t Transport, archiver Archiver, logger *slog.Logger) *Fetcher {
	return &Fetcher{transport: t, archiver: archiver, logger: logger}
}

// Acquire returns immediately when localPath exists. Otherwise it downloads
// url into localPath. Failures are reported in the Result, never as a panic
// or a partial file.
func (f *Fetcher) Acquire(ctx context.Context, url, localPath string) Result {
	if _, err := os.Stat(localPath); err == nil {
		return Result{Outcome: domain.OutcomeCached}
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return failed(domain.ReasonWrite, fmt.Errorf("create cache dir: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(localPath), filepath.Base(localPath)+".*.part")
	if err != nil {
		return failed(domain.ReasonWrite, fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := f.transport.Fetch(ctx, url, tmp); err != nil {
		_ = tmp.Close()
		return failed(classify(err), err)
	}
	if err := tmp.Close(); err != nil {
		return failed(domain.ReasonWrite, fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Rename(tmpName, localPath); err != nil {
		return failed(domain.ReasonWrite, fmt.Errorf("rename into cache: %w", err))
	}
	committed = true

	if f.archiver != nil {
		if err := f.archiver.Archive(ctx, localPath); err != nil {
			f.logger.Warn("archive cached file failed", "path", localPath, "error", err)
		}
	}
	return Result{Outcome: domain.OutcomeDownloaded}
}

func failed(reason domain.FailureReason, err error) Result {
	return Result{Outcome: domain.OutcomeFailed, Reason: reason, Err: err}
}

func classify(err error) domain.FailureReason {
	var statusErr *domain.StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ReasonNotFound
	case errors.Is(err, domain.ErrCircuitOpen):
		return domain.ReasonCircuitOpen
	case errors.As(err, &statusErr):
		return domain.ReasonBadStatus
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return domain.ReasonTimeout
	default:
		return domain.ReasonTransport
	}
}
