package domain

import (
	"errors"
	"fmt"
	"time"
)

// FetchOutcome is the result class of one acquisition attempt.
type FetchOutcome string

const (
	OutcomeCached     FetchOutcome = "cached"
	OutcomeDownloaded FetchOutcome = "downloaded"
	OutcomeFailed     FetchOutcome = "failed"
)

// FailureReason explains a failed acquisition attempt.
type FailureReason string

const (
	ReasonNone        FailureReason = ""
	ReasonNotFound    FailureReason = "not_found"
	ReasonBadStatus   FailureReason = "bad_status"
	ReasonTimeout     FailureReason = "timeout"
	ReasonTransport   FailureReason = "transport"
	ReasonCircuitOpen FailureReason = "circuit_open"
	ReasonWrite       FailureReason = "write"
)

// FetchAttempt records one probe of a dated remote resource. It only lives for
// the duration of a single resolution.
type FetchAttempt struct {
	CandidateDate time.Time
	RemoteURL     string
	LocalPath     string
	Outcome       FetchOutcome
	Reason        FailureReason
}

var (
	// ErrNotFound is returned by transports when the remote resource does not exist.
	ErrNotFound = errors.New("remote resource not found")

	// ErrCircuitOpen is returned by transports that refuse to call a failing host.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// StatusError is returned by transports for unexpected HTTP status codes.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
