package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Backend sends one prompt as a single user message and returns the
// completion text unchanged.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Model identifies the backend and model for logs and stats.
	Model() string
	Close() error
}

// Kind classifies a backend failure.
type Kind string

const (
	KindAuth      Kind = "auth"
	KindRateLimit Kind = "rate_limit"
	KindTimeout   Kind = "timeout"
	KindNetwork   Kind = "network"
	KindMalformed Kind = "malformed"
	KindStatus    Kind = "status"
)

// BackendError is any failed LLM call. Calls are never retried.
type BackendError struct {
	Backend    string
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s backend %s (status %d): %s", e.Backend, e.Kind, e.StatusCode, truncate(msg, 200))
	}
	return fmt.Sprintf("%s backend %s: %s", e.Backend, e.Kind, truncate(msg, 200))
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsBackendError reports whether err is (or wraps) a BackendError.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// kindForStatus maps an HTTP status to a failure kind.
func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindStatus
	}
}

// transportError wraps an error that happened before any response arrived.
func transportError(backend string, err error) *BackendError {
	kind := KindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &BackendError{Backend: backend, Kind: kind, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
