package api

import "fmt"

// AuthError indicates the session cannot be made valid without a fresh
// login. It is fatal for the current sync attempt and must not be
// retried silently.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError indicates a network-level failure (connection refused,
// DNS, timeout). Retryable by caller policy.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError indicates a non-2xx response. 5xx responses are considered
// transient; 4xx responses other than auth failures point at a logic bug
// and are surfaced without retry.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status suggests a transient condition.
func (e *ServerError) Retryable() bool { return e.StatusCode >= 500 }

// ParseError indicates a response that decoded but failed schema
// validation, e.g. an unparseable timestamp. Distinct from apply
// failures: the payload never made it past the fetch boundary.
type ParseError struct {
	Entity string
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s.%s in server response: %v", e.Entity, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
