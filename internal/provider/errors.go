package provider

import "fmt"

// ErrorKind classifies an upstream failure. The dispatcher treats every kind
// uniformly as a failed run; the kind exists for logs and usage accounting.
type ErrorKind string

const (
	KindNetwork   ErrorKind = "network"
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
	KindMalformed ErrorKind = "malformed"
	KindQuota     ErrorKind = "quota"
)

// Error is the single error type surfaced by the provider client.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, status int, msg string, err error) *Error {
	return &Error{Kind: kind, StatusCode: status, Message: msg, Err: err}
}
