package resolver

import (
	"errors"
	"fmt"

	dnserrors "github.com/xfalcon/localresolve/internal/errors"
)

var (
	// ErrNoAddress matches every failed resolve. Callers that only care
	// whether an address was found can test for this alone.
	ErrNoAddress = errors.New("mdns: no address resolved")

	// ErrExhausted matches a resolve whose receive attempts all ran out
	// without a usable A record.
	ErrExhausted = errors.New("mdns: receive attempts exhausted")

	// ErrTransport matches a resolve that failed on the network side:
	// multicast lock, socket setup, group join, send or receive.
	ErrTransport = errors.New("mdns: transport failure")
)

// ResolveError describes why a resolve call ended without an address.
type ResolveError struct {
	// Host is the normalized name that was queried.
	Host string

	// State is the terminal state, StateExhausted or StateFailed.
	State State

	// Attempts is the number of receive attempts made.
	Attempts int

	// Err is the cause. It is nil for a plain exhaustion.
	Err error
}

func (e *ResolveError) Error() string {
	msg := fmt.Sprintf("mdns: resolve %s: %s after %d attempt(s)", e.Host, e.State, e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the package sentinels against the terminal state.
func (e *ResolveError) Is(target error) bool {
	switch target {
	case ErrNoAddress:
		return true
	case ErrExhausted:
		return e.State == StateExhausted
	case ErrTransport:
		var netErr *dnserrors.NetworkError
		return e.State == StateFailed && errors.As(e.Err, &netErr)
	}
	return false
}
