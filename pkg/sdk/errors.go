package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Sentinel errors matched via errors.Is against API error codes.
var (
	// ErrInvalidQuery signals an empty or whitespace-only query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSynthesisUnavailable signals that the service could not synthesize
	// an answer.
	ErrSynthesisUnavailable = errors.New("synthesis unavailable")
	// ErrDeadlineExceeded signals that the service's overall request
	// deadline was breached.
	ErrDeadlineExceeded = errors.New("research deadline exceeded")
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notemill api: http %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the machine-readable code onto the matching sentinel so
// callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "invalid_query":
		return ErrInvalidQuery
	case "synthesis_unavailable":
		return ErrSynthesisUnavailable
	case "deadline_exceeded":
		return ErrDeadlineExceeded
	default:
		return nil
	}
}

// parseAPIError builds an APIError from an error response body.
func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		apiErr.Message = "failed to read error response"
		return apiErr
	}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = string(body)
		return apiErr
	}

	apiErr.Code = payload.Code
	apiErr.Message = payload.Message
	return apiErr
}
