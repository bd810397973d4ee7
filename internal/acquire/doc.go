// Package acquire resolves and caches dated remote resources.
//
// A [Locator] walks a window of candidate dates produced by [CandidateDates],
// newest first, and asks a [Fetcher] to make each candidate available locally.
// The first candidate that succeeds wins. Cached files are never refreshed:
// presence on disk is the only validity signal.
package acquire
