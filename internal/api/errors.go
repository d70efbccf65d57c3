package api

import (
	"errors"
	"net/http"
)

// Kind classifies a failed call for the caller to act on.
type Kind int

const (
	// KindBusiness covers non-auth 4xx/5xx answers and unclassified errors.
	KindBusiness Kind = iota
	// KindAuth is a 401 or 403 answer.
	KindAuth
	// KindTransport means the request never completed.
	KindTransport
	// KindMalformed is a 2xx answer whose body could not be decoded.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	default:
		return "business"
	}
}

const (
	transportMessage = "unable to reach the server"
	malformedMessage = "unexpected response from the server"
)

// Error is the single normalized failure every API call returns.
type Error struct {
	Kind   Kind
	Status int
	// Message is the human-readable text: server detail, then server message,
	// then "HTTP <status>: <statusText>".
	Message string
	// Detail and ServerMessage hold the raw envelope fields when present.
	Detail        string
	ServerMessage string

	Method string
	Path   string
	Err    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newStatusError(method, path string, status int, statusText string, env envelope) *Error {
	kind := KindBusiness
	if isAuthStatus(status) {
		kind = KindAuth
	}
	message := env.Detail
	if message == "" {
		message = env.Message
	}
	if message == "" {
		message = statusLine(status, statusText)
	}
	return &Error{
		Kind:          kind,
		Status:        status,
		Message:       message,
		Detail:        env.Detail,
		ServerMessage: env.Message,
		Method:        method,
		Path:          path,
	}
}

func newTransportError(method, path string, err error) *Error {
	return &Error{Kind: KindTransport, Message: transportMessage, Method: method, Path: path, Err: err}
}

func newMalformedError(method, path string, status int, err error) *Error {
	return &Error{Kind: KindMalformed, Status: status, Message: malformedMessage, Method: method, Path: path, Err: err}
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// Classify returns the kind of err. Errors that did not come from this package
// are reported as KindBusiness.
func Classify(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindBusiness
}

// IsAuthFailure reports whether err carries a 401 or 403 status. The decision is
// made on the status code alone.
func IsAuthFailure(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return isAuthStatus(apiErr.Status)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
