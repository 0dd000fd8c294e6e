package courseapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a collaborator failure for the engine's retry policy.
type Kind string

const (
	// KindNetwork covers transport failures, timeouts, and 5xx
	// responses. Retryable with backoff.
	KindNetwork Kind = "NETWORK"

	// KindRateLimited is a 429. Retryable with backoff.
	KindRateLimited Kind = "RATE_LIMITED"

	// KindValidation means the backend rejected the payload itself
	// (malformed ordering, bad field). Not retryable; surfaced as-is.
	KindValidation Kind = "VALIDATION"

	// KindConflict means the backend no longer recognizes an
	// identifier or version the client sent. The engine responds with
	// a fresh fetch + reconcile, never a blind retry.
	KindConflict Kind = "CONFLICT"

	// KindFatal is everything else (auth failures, 404s, bugs).
	// Not retryable.
	KindFatal Kind = "FATAL"
)

// Error is a classified collaborator failure.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "save course"
	Status  int    // HTTP status when applicable, else 0
	Message string
	Err     error // underlying cause (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s: %s (status %d)", e.Kind, e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError wraps an underlying cause with a classification.
func WrapError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: err.Error(), Err: err}
}

// KindOf extracts the classification from an error chain.
// Unclassified errors (including context cancellation) map to KindNetwork
// except context.Canceled, which maps to KindFatal - a cancelled save
// was superseded on purpose and must not be retried.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindFatal
	}
	return KindNetwork
}

// Retryable reports whether the engine should retry the operation with
// backoff.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindRateLimited:
		return true
	default:
		return false
	}
}

// IsConflict reports whether the failure calls for fetch + reconcile.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsValidation reports whether the backend rejected the payload.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// ClassifyStatus maps an HTTP status code to a Kind.
func ClassifyStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusConflict || status == http.StatusGone:
		return KindConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500:
		return KindNetwork
	default:
		return KindFatal
	}
}
