// Package apierror defines the error taxonomy shared by all SDK layers.
//
// The request pipeline reports exactly one of four disjoint failure kinds for
// every request it executes:
//
//   - TransportError: no response was received at all
//   - ProtocolError:  a response arrived with a non-success status code
//   - DecodeError:    a success response carried an unparseable body
//   - APIError:       a well-formed body carried an embedded error code
//
// Collapsing these into a single "request failed" signal would lose
// information callers need: "no network", "server rejected", "server
// misbehaved" and "business error" each call for different user messaging.
// Callers match kinds with errors.As and the remaining sentinel conditions
// with errors.Is.
package apierror

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotAuthenticated is returned when an operation required a resolved
// identity but the identity probe returned none.
var ErrNotAuthenticated = errors.New("not authenticated")

// TransportError means the connection could not be established or was
// interrupted before any response arrived (DNS failure, refused connection,
// timeout). The pipeline never retries it; the caller decides.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means the server (or an intermediary) did respond, but the
// status code indicates failure. Distinguished from TransportError because a
// response, even a bad one, proves the host was reachable.
type ProtocolError struct {
	StatusCode int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected http status %d", e.StatusCode)
}

// DecodeError means a success response could not be parsed into structured
// data.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// APIError means the response parsed fine but the payload itself carried an
// embedded error indicator despite the success status. Code is the
// server-supplied error key, e.g. "ERROR_USER_NOT_FOUND" or "INVALID_CARD".
type APIError struct {
	Code string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s", e.Code)
}

// CooldownError is returned by the local verification-code guard when an
// unexpired cooldown entry exists for the phone. No network call was made.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("code already requested, retry in %s", e.Remaining.Round(time.Second))
}
