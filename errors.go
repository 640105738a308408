package rill

import (
	"errors"
	"fmt"
)

// Kind classifies a request failure. The set is closed: every failure the
// executor can surface maps to exactly one Kind, and whether a Kind is
// retryable is fixed at the type level.
type Kind int

const (
	// KindInvalidRequest indicates the request was malformed before any
	// transport submission. Never retried.
	KindInvalidRequest Kind = iota

	// KindNoData indicates a successful status with an absent body.
	KindNoData

	// KindDecodingFailed indicates the response body could not be decoded.
	// Decoding is presumed deterministic, so this is never retried even
	// though the transport exchange succeeded.
	KindDecodingFailed

	// KindServerError indicates a 5xx or otherwise unmapped non-2xx status.
	KindServerError

	// KindUnavailable indicates a transport-level failure such as missing
	// connectivity.
	KindUnavailable

	// KindUnauthorized indicates a 401 status.
	KindUnauthorized

	// KindForbidden indicates a 403 status.
	KindForbidden

	// KindNotFound indicates a 404 status.
	KindNotFound

	// KindTimeout indicates the transport call exceeded its deadline.
	KindTimeout
)

// Retryable reports whether failures of this kind are transient and worth
// retrying. All other kinds are terminal.
func (k Kind) Retryable() bool {
	switch k {
	case KindServerError, KindUnavailable, KindTimeout:
		return true
	default:
		return false
	}
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindNoData:
		return "no_data"
	case KindDecodingFailed:
		return "decoding_failed"
	case KindServerError:
		return "server_error"
	case KindUnavailable:
		return "unavailable"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the failure surface of the executor. It carries the classified
// kind, the HTTP status that produced it (0 for transport-level failures),
// and the underlying cause when one exists.
type Error struct {
	Kind   Kind
	Status int
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Cause != nil && e.Status != 0:
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
	case e.Status != 0:
		return fmt.Sprintf("%s (status %d)", e.Kind, e.Status)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error of the given kind wrapping a cause.
func NewError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// KindOf extracts the Kind from an error produced by the executor.
// Returns false if the error is not a rill Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// classifyStatus maps a non-2xx HTTP status to its kind.
func classifyStatus(status int) Kind {
	switch status {
	case 401:
		return KindUnauthorized
	case 403:
		return KindForbidden
	case 404:
		return KindNotFound
	default:
		return KindServerError
	}
}
