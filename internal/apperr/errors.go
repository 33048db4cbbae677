// Package apperr defines the typed error taxonomy shared by every
// bookmarkd component. Components return these kinds instead of raw
// errors so the orchestrator is the single place that decides what
// reaches the user.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error for propagation-policy decisions.
type Kind string

const (
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindUnauthorized     Kind = "unauthorized"
	KindRateLimited      Kind = "rate_limited"
	KindLLMUnstructured  Kind = "llm_unstructured"
	KindLLMTimeout       Kind = "llm_timeout"
	KindLLMUnavailable   Kind = "llm_unavailable"
	KindScrapeFailed     Kind = "scrape_failed"
	KindStoreUnavailable Kind = "store_unavailable"
	KindCacheUnavailable Kind = "cache_unavailable"
	KindTimeout          Kind = "timeout"
	KindInternal         Kind = "internal"
)

// Error is the common shape for every taxonomy member. Message is safe
// to show to a user; Err (if set) carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// RetryAfter is populated for KindRateLimited.
	RetryAfter time.Duration

	// Quality and Partial are populated for KindScrapeFailed.
	Quality int
	Partial bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, apperr.NotFound) style checks by Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func new_(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func InvalidInput(msg string, err error) *Error     { return new_(KindInvalidInput, msg, err) }
func NotFound(msg string, err error) *Error         { return new_(KindNotFound, msg, err) }
func Conflict(msg string, err error) *Error         { return new_(KindConflict, msg, err) }
func Unauthorized(msg string, err error) *Error     { return new_(KindUnauthorized, msg, err) }
func LLMUnstructured(msg string, err error) *Error  { return new_(KindLLMUnstructured, msg, err) }
func LLMTimeout(msg string, err error) *Error       { return new_(KindLLMTimeout, msg, err) }
func LLMUnavailable(msg string, err error) *Error   { return new_(KindLLMUnavailable, msg, err) }
func StoreUnavailable(msg string, err error) *Error { return new_(KindStoreUnavailable, msg, err) }
func CacheUnavailable(msg string, err error) *Error { return new_(KindCacheUnavailable, msg, err) }
func Timeout(msg string, err error) *Error          { return new_(KindTimeout, msg, err) }
func Internal(msg string, err error) *Error         { return new_(KindInternal, msg, err) }

// RateLimited reports that a caller must wait before retrying.
func RateLimited(retryAfter time.Duration, msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg, RetryAfter: retryAfter}
}

// ScrapeFailed reports a scrape that produced content below the quality
// floor (Partial indicates a best-effort attempt was still returned).
func ScrapeFailed(quality int, partial bool, msg string) *Error {
	return &Error{Kind: KindScrapeFailed, Message: msg, Quality: quality, Partial: partial}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// errors that never went through this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if err == nil {
		return ""
	}
	return KindInternal
}

// IsKind reports whether err (or something it wraps) carries kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Recoverable reports whether the orchestrator's degradation matrix
// can absorb this error instead of failing the whole request.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindLLMUnstructured, KindLLMTimeout, KindLLMUnavailable, KindCacheUnavailable:
		return true
	default:
		return false
	}
}
