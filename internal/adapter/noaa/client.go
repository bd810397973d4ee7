// Package noaa implements the HTTP transport used to download NOAA Coral
// Reef Watch products.
package noaa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/ocean-health-etl/internal/domain"
	"github.com/sony/gobreaker"
)

// Client implements acquire.Transport over HTTP. Each request is attempted
// once; a circuit breaker stops probing a host that keeps failing.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a transport with a fixed per-request timeout. The breaker
// opens after maxFailures consecutive transport errors or 5xx responses.
func NewClient(name string, timeout time.Duration, maxFailures uint32, logger *slog.Logger) *Client {
	return newClient(name, &http.Client{Timeout: timeout}, maxFailures, logger)
}

func newClient(name string, httpClient *http.Client, maxFailures uint32, logger *slog.Logger) *Client {
	if maxFailures == 0 {
		maxFailures = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{name: name, httpClient: httpClient, breaker: cb, logger: logger}
}

// Fetch streams the body of url into w when the server answers 200.
// 404 and 410 map to domain.ErrNotFound, which is not a breaker failure:
// an unpublished daily file is the expected case for recent dates.
func (c *Client) Fetch(ctx context.Context, url string, w io.Writer) error {
	var outcome error
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request: %w", c.name, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if _, err := io.Copy(w, resp.Body); err != nil {
				return nil, fmt.Errorf("read %s body: %w", c.name, err)
			}
			return nil, nil
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			outcome = domain.ErrNotFound
			return nil, nil
		case resp.StatusCode >= 500:
			return nil, &domain.StatusError{Code: resp.StatusCode}
		default:
			outcome = &domain.StatusError{Code: resp.StatusCode}
			return nil, nil
		}
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", c.name, domain.ErrCircuitOpen)
	}
	if err != nil {
		return err
	}
	return outcome
}
