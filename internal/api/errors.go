package api

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an API failure. Retriability is a pure function of the
// kind, never of the context the error occurred in.
type Kind int

const (
	// KindNetwork indicates the transport could not reach the remote host.
	KindNetwork Kind = iota
	// KindRateLimited indicates the remote returned 429.
	KindRateLimited
	// KindServer indicates the remote returned a 5xx status.
	KindServer
	// KindClient indicates the remote returned a non-429 4xx status.
	KindClient
	// KindInvalidResponse indicates the response was unusable: an otherwise
	// unclassified status, an unparseable body, or an unexpected encoding.
	KindInvalidResponse
	// KindAborted indicates local cancellation or timeout fired before the
	// call completed.
	KindAborted
)

// String returns the kind's wire-style name.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server_error"
	case KindClient:
		return "client_error"
	case KindInvalidResponse:
		return "invalid_response"
	case KindAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Retriable reports whether an operation failing with this kind is worth
// retrying.
func (k Kind) Retriable() bool {
	switch k {
	case KindNetwork, KindRateLimited, KindServer:
		return true
	default:
		return false
	}
}

// Error is the classified failure returned by every client operation.
// StatusCode is zero unless the failure was status-driven.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retriable reports whether retrying the failed operation is advisable.
func (e *Error) Retriable() bool {
	return e.Kind.Retriable()
}

// IsRetriable reports whether err is a classified API error whose kind is
// retriable. Any other error reports false.
func IsRetriable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Retriable()
}

// classifyStatus maps a non-2xx HTTP status to an error kind.
func classifyStatus(status int) Kind {
	switch {
	case status == 429:
		return KindRateLimited
	case status >= 500 && status <= 599:
		return KindServer
	case status >= 400 && status <= 499:
		return KindClient
	default:
		return KindInvalidResponse
	}
}

// transportError classifies a failure that prevented the transport from
// producing a response. Context cancellation and deadline expiry both map to
// KindAborted; the caller cannot distinguish which signal fired. Everything
// else is treated as the remote endpoint being unreachable, which doubles as
// the last-resort classification for unexpected failures.
func transportError(err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindAborted, Message: "request aborted before completion", Err: err}
	}
	return &Error{Kind: KindNetwork, Message: "remote endpoint unreachable", Err: err}
}
