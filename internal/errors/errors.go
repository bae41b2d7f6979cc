package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Failure classes shared by the credential manager and the object accessors
var (
	// Credential acquisition errors
	ErrAuth    = errors.New("authorization rejected")
	ErrFile    = errors.New("secret file unreadable")
	ErrSigning = errors.New("token signing failed")
	ErrConfig  = errors.New("invalid auth configuration")

	// Object store errors
	ErrUnsupported = errors.New("unsupported operation")
	ErrTransport   = errors.New("transport failure")
)

// AuthError is returned when an authorization server rejects a request.
// Payload holds the raw response body so callers can inspect what the server said.
type AuthError struct {
	StatusCode  int    // HTTP status of the rejecting response
	Code        string // OAuth error code, e.g. "access_denied" (empty when not reported)
	Description string // error_description or message field, when present
	Payload     string // raw response body
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString(ErrAuth.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, ": %s", e.Code)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, " (%s)", e.Description)
	}
	if e.Code == "" && e.Payload != "" {
		fmt.Fprintf(&b, ": %s", e.Payload)
	}
	return b.String()
}

func (e *AuthError) Unwrap() error {
	return ErrAuth
}

// TransportError is returned by the REST transport for non-auth failures: either the
// request never completed (Err is set) or the server answered with a non-2xx status.
type TransportError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s: %v", ErrTransport, e.Method, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: status %d: %s", ErrTransport, e.Method, e.Endpoint, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransport, e.Err}
	}
	return []error{ErrTransport}
}

// Mark tags err with a failure class while keeping the underlying cause reachable
func Mark(class, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: "+format+": %w", append(append([]interface{}{class}, args...), err)...)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
