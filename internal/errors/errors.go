// Package errors defines the typed errors used across the resolver.
//
// Three kinds of failure exist on the query path:
//   - NetworkError: socket setup, send, receive (including timeouts) and close
//   - ValidationError: a hostname that cannot be encoded into a query
//   - WireFormatError: a received datagram that is not a usable DNS message
//
// All three wrap an underlying cause where one exists so callers can use
// errors.Is / errors.As through them.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// NetworkError reports a failed socket operation.
type NetworkError struct {
	// Operation names the step that failed, e.g. "join multicast group".
	Operation string

	// Err is the underlying error returned by the net package or the OS.
	Err error

	// Details carries extra context such as the address involved.
	Details string
}

func (e *NetworkError) Error() string {
	msg := "network error: " + e.Operation
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a read or write deadline expiring.
func (e *NetworkError) Timeout() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// ValidationError reports an input that was rejected before anything was sent.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Message)
}

// WireFormatError reports a malformed DNS message.
type WireFormatError struct {
	// Operation names what was being read, e.g. "read answer header".
	Operation string

	// Offset is the byte position where the problem was detected.
	Offset int

	Message string

	Err error
}

func (e *WireFormatError) Error() string {
	msg := fmt.Sprintf("wire format error: %s at offset %d: %s", e.Operation, e.Offset, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is, or wraps, a network timeout.
func IsTimeout(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var plain net.Error
	return errors.As(err, &plain) && plain.Timeout()
}
