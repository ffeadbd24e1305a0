package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrAuth indicates the provider rejected the credentials (401/403).
type ErrAuth struct {
	StatusCode int
	Err        error
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("LLM authentication failed (HTTP %d): %v", e.StatusCode, e.Err)
}

func (e *ErrAuth) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrParse indicates no decodable JSON object could be recovered from the
// response text.
type ErrParse struct {
	Content string
	Err     error
}

func (e *ErrParse) Error() string {
	return fmt.Sprintf("parse LLM response: %v", e.Err)
}

func (e *ErrParse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// FailureKind classifies a provider failure for callers that report it to
// a user.
type FailureKind string

const (
	FailureAuthInvalid        FailureKind = "auth_invalid"
	FailureRateLimited        FailureKind = "rate_limited"
	FailureServiceUnavailable FailureKind = "service_unavailable"
	FailureMalformedResponse  FailureKind = "malformed_response"
)

// Reason is a human-readable description of the failure kind.
func (k FailureKind) Reason() string {
	switch k {
	case FailureAuthInvalid:
		return "the API key is invalid or lacks permission"
	case FailureRateLimited:
		return "the API rate limit was exceeded, try again shortly"
	case FailureMalformedResponse:
		return "the AI service returned a response in an unexpected format"
	default:
		return "the AI service is temporarily unavailable"
	}
}

// Classified is implemented by errors that already carry a failure kind.
type Classified interface {
	error
	FailureKind() FailureKind
}

// KindOf classifies err. Errors that are not recognized, including
// transport errors and cancellation, count as service unavailability.
func KindOf(err error) FailureKind {
	var classified Classified
	if errors.As(err, &classified) {
		return classified.FailureKind()
	}

	var (
		auth    *ErrAuth
		rl      *ErrRateLimit
		invalid *ErrInvalidResponse
		parse   *ErrParse
		maxTok  *ErrMaxTokensExceeded
	)
	switch {
	case errors.As(err, &auth):
		return FailureAuthInvalid
	case errors.As(err, &rl):
		return FailureRateLimited
	case errors.As(err, &invalid), errors.As(err, &parse), errors.As(err, &maxTok):
		return FailureMalformedResponse
	default:
		return FailureServiceUnavailable
	}
}

// statusError maps an HTTP status code returned by a provider SDK to the
// typed errors above.
func statusError(status int, err error) error {
	switch {
	case status == 401 || status == 403:
		return &ErrAuth{StatusCode: status, Err: err}
	case status == 429:
		return &ErrRateLimit{Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}
