// Package common defines shared constants and sentinel errors used across
// client layers of PinShare. Callers should use errors.Is to match these
// values and errors.As for RequestFailedError.
package common

import (
	"errors"
	"fmt"
)

var (
	// Token errors (malformed or undecodable token). Treated as expired.
	ErrInvalidToken = errors.New("invalid token")

	// Session lifecycle errors.
	ErrSessionExpired = errors.New("session expired")
	ErrNoCredentials  = errors.New("no authentication token found")

	// Transport-level failure (DNS, refused connection, timeout).
	ErrTransport = errors.New("transport error")

	// File sharing errors.
	ErrPinFailed            = errors.New("pin failed")
	ErrLinkExpiredOrMissing = errors.New("this shared file has expired or does not exist")
)

// DefaultErrorMessage is used when a failed response carries no usable message.
const DefaultErrorMessage = "An error occurred"

// RequestFailedError is returned for non-2xx, non-401 backend responses.
type RequestFailedError struct {
	Status  int
	Message string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

// IsRequestFailed reports whether err is a RequestFailedError and returns it.
func IsRequestFailed(err error) (*RequestFailedError, bool) {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf, true
	}
	return nil, false
}
