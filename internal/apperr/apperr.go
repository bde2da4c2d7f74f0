// Package apperr defines the typed error taxonomy shared by every core
// component, replacing exception-style control flow for non-exceptional
// conditions like rate limits.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind is one of the wire-visible error taxonomy values.
type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindChatNotFound   Kind = "CHAT_NOT_FOUND"
	KindUsernameInvalid Kind = "USERNAME_INVALID"
	KindChannelPrivate Kind = "CHANNEL_PRIVATE"
	KindRateLimited    Kind = "RATE_LIMITED"
	KindUnavailable    Kind = "UNAVAILABLE"
	KindResourceExpired Kind = "RESOURCE_EXPIRED"
	KindInternal       Kind = "INTERNAL_ERROR"
)

// HTTPStatus returns the status code the Façade should surface for a Kind,
// matching the wire error envelope's `status` field.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindUsernameInvalid:
		return 400
	case KindChatNotFound, KindResourceExpired:
		return 404
	case KindChannelPrivate:
		return 403
	case KindRateLimited:
		return 429
	case KindUnavailable:
		return 503
	default:
		return 500
	}
}

// AppError is the tagged-variant failure value every core component returns
// instead of raising. It wraps an optional underlying cause for logging
// while never leaking that cause's text to callers.
type AppError struct {
	Kind       Kind
	Title      string
	Detail     string
	RetryAfter time.Duration // set only for KindRateLimited
	Cursor     string        // resumable cursor, set only for KindRateLimited
	cause      error
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

func (e *AppError) Unwrap() error { return e.cause }

// New builds an AppError of the given kind.
func New(kind Kind, title, detail string) *AppError {
	return &AppError{Kind: kind, Title: title, Detail: detail}
}

// Wrap builds an AppError of the given kind carrying an internal cause that
// is never surfaced verbatim to the caller (only logged).
func Wrap(kind Kind, title string, cause error) *AppError {
	return &AppError{Kind: kind, Title: title, cause: cause}
}

// RateLimited builds the typed failure the Wait Controller surfaces when a
// provider-signalled wait exceeds budget.
func RateLimited(retryAfter time.Duration, resumableCursor string) *AppError {
	return &AppError{
		Kind:       KindRateLimited,
		Title:      "rate limited by provider",
		RetryAfter: retryAfter,
		Cursor:     resumableCursor,
	}
}

// As reports whether err is (or wraps) an *AppError, mirroring errors.As.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Is reports whether err is an *AppError of the given Kind.
func Is(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}
