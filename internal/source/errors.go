package source

import (
	"fmt"
	"time"
)

// StatusError represents a non-2xx response from a dataset host.
type StatusError struct {
	StatusCode int
	URL        string
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("fetch %s: status=%d", e.URL, e.StatusCode)
	if e.RequestID != "" {
		msg += " request_id=" + e.RequestID
	}
	if e.Message != "" {
		msg += " message=" + e.Message
	}
	return msg
}

// NotFoundError indicates the dataset URL does not exist (404/410).
type NotFoundError struct{ *StatusError }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dataset not found: %s", e.StatusError.Error())
}

func (e *NotFoundError) Unwrap() error { return e.StatusError }

// RateLimitError indicates 429 responses and may include a Retry-After.
type RateLimitError struct {
	*StatusError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: wait about %ds before retrying: %s", int(e.RetryAfter.Seconds()), e.StatusError.Error())
	}
	return fmt.Sprintf("rate limited: %s", e.StatusError.Error())
}

func (e *RateLimitError) Unwrap() error { return e.StatusError }

// ServerError indicates 5xx errors from the dataset host.
type ServerError struct{ *StatusError }

func (e *ServerError) Error() string { return fmt.Sprintf("host error: %s", e.StatusError.Error()) }
func (e *ServerError) Unwrap() error { return e.StatusError }

// UnreachableError indicates the dataset host or file could not be reached.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("dataset unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("dataset unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }
