package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apphttp "github.com/handiism/problem-archiver/internal/http"
)

var (
	// ErrNotFound is returned when the catalog has no such item or
	// sub-resource.
	ErrNotFound = errors.New("not found")

	// ErrNoAnswer is returned when a variant (or the item) genuinely has no
	// authored answer. It is not a failure.
	ErrNoAnswer = errors.New("no answer available")
)

// AuthError reports a missing, rejected or silently expired credential.
// It is fatal for the whole run.
type AuthError struct {
	Reason string
	Cause  error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// QueryError reports GraphQL-level errors that do not map to a known class.
type QueryError struct {
	Operation string
	Messages  []string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %s", e.Operation, strings.Join(e.Messages, "; "))
}

// IsFatal reports whether err must halt the whole run.
func IsFatal(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsRetryable reports whether err is worth another attempt.
//
// Authentication, not-found, no-answer, query and cancellation errors are
// permanent. Non-2xx replies are retried only for 429 and 5xx. Anything
// else (network failures, timeouts, truncated bodies) is treated as
// transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsFatal(err) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoAnswer) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		return false
	}
	var statusErr *apphttp.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
