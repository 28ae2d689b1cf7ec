package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals an empty or whitespace-only query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSearchProvider signals a search provider failure.
	ErrSearchProvider = errors.New("search provider error")
	// ErrSynthesisProvider signals a synthesis provider failure.
	ErrSynthesisProvider = errors.New("synthesis provider error")
	// ErrSynthesisUnavailable signals that the request failed because no
	// answer could be synthesized. There is no fallback for this stage.
	ErrSynthesisUnavailable = errors.New("synthesis unavailable")
	// ErrDeadlineExceeded signals that the overall request deadline was
	// breached, regardless of which stage was active.
	ErrDeadlineExceeded = errors.New("research deadline exceeded")
)

// Warning codes carried in a degraded (still successful) response.
const (
	// WarnSearchUnavailable marks a response answered without retrieved
	// evidence because the search stage failed.
	WarnSearchUnavailable = "search_unavailable"
	// WarnCitationUnresolved marks a response where at least one citation
	// marker did not resolve to an evidence index and was dropped.
	WarnCitationUnresolved = "citation_unresolved"
)

// ProviderError wraps a failed call to an external provider with enough
// context to classify it for retry purposes. StatusCode is the provider's
// HTTP status, or 0 for transport-level failures (connect errors, timeouts).
type ProviderError struct {
	Provider   string // "search" or "synthesis"
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider: http %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Transient reports whether a retry could plausibly succeed: transport
// failures and timeouts (StatusCode 0), rate limiting (429), and server
// errors (5xx). Other 4xx responses are permanent — a bad request or bad
// credential will not improve on retry.
func (e *ProviderError) Transient() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// NewSearchProviderError creates a ProviderError wrapping ErrSearchProvider.
func NewSearchProviderError(statusCode int, err error) error {
	return &ProviderError{
		Provider:   "search",
		StatusCode: statusCode,
		Err:        fmt.Errorf("%w: %w", ErrSearchProvider, err),
	}
}

// NewSynthesisProviderError creates a ProviderError wrapping ErrSynthesisProvider.
func NewSynthesisProviderError(statusCode int, err error) error {
	return &ProviderError{
		Provider:   "synthesis",
		StatusCode: statusCode,
		Err:        fmt.Errorf("%w: %w", ErrSynthesisProvider, err),
	}
}
