package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type ErrorKind int

const (
	// ErrorTransient failures are worth retrying after a backoff.
	ErrorTransient ErrorKind = iota

	// ErrorRateLimited failures are retried after the advertised wait.
	ErrorRateLimited

	ErrorFatal

	// ErrorEmpty marks a successful response without audio. It is not retried.
	ErrorEmpty
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorTransient:
		return "transient"
	case ErrorRateLimited:
		return "rate_limited"
	case ErrorFatal:
		return "fatal"
	case ErrorEmpty:
		return "empty"
	}

	return "unknown"
}

func (k ErrorKind) Retryable() bool {
	return k == ErrorTransient || k == ErrorRateLimited
}

type Error struct {
	Kind ErrorKind

	StatusCode int
	RetryAfter time.Duration

	Message string

	Err error
}

func (e *Error) Error() string {
	msg := e.Message

	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s error (%d): %s", e.Kind, e.StatusCode, msg)
	}

	return fmt.Sprintf("upstream %s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps an upstream status code to an error kind.
//
// 403 is treated as transient: the upstream answers it to traffic it
// considers automated, and it clears after a pause.
func Classify(status int, message string, retryAfter time.Duration) *Error {
	kind := ErrorFatal

	switch {
	case status == http.StatusTooManyRequests:
		kind = ErrorRateLimited

	case status == http.StatusForbidden,
		status == http.StatusRequestTimeout,
		status == http.StatusTooEarly,
		status >= 500:
		kind = ErrorTransient
	}

	return &Error{
		Kind: kind,

		StatusCode: status,
		RetryAfter: retryAfter,

		Message: message,
	}
}

// AsError returns err as a provider error, classifying foreign errors.
// Errors that are not upstream answers (network failures, timeouts) are
// transient.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var perr *Error

	if errors.As(err, &perr) {
		return perr
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Kind: ErrorFatal, Err: err}
	}

	return &Error{Kind: ErrorTransient, Err: err}
}

// Fatal re-classifies err as fatal, keeping status and message.
func Fatal(err error) *Error {
	perr := AsError(err)

	if perr == nil {
		return nil
	}

	result := *perr
	result.Kind = ErrorFatal

	if result.Err == nil {
		result.Err = perr
	}

	return &result
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func ParseRetryAfter(val string) time.Duration {
	val = strings.TrimSpace(val)

	if val == "" {
		return 0
	}

	if seconds, err := strconv.ParseFloat(val, 64); err == nil {
		if seconds < 0 {
			return 0
		}

		return time.Duration(seconds * float64(time.Second))
	}

	if t, err := http.ParseTime(val); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}
