// Package resolver resolves ".local" hostnames to IPv4 addresses with a
// single multicast DNS query.
//
// Each call sends one A-record question to 224.0.0.251:5353 and then listens
// for a bounded number of receive attempts (5 × 2s by default). The first A
// record seen in any reply wins. Nothing is cached between calls and no
// socket outlives a call: the caller decides whether and how long to keep a
// resolved address.
//
// A call blocks for up to attempts × timeout, so run it off any latency
// sensitive goroutine and use the context to abort it early.
//
// Example:
//
//	r, err := resolver.New()
//	if err != nil {
//	    return err
//	}
//
//	addr, err := r.Resolve(ctx, "zwift.local")
//	switch {
//	case errors.Is(err, resolver.ErrExhausted):
//	    fmt.Println("nobody answered")
//	case err != nil:
//	    return err
//	default:
//	    fmt.Println("zwift.local is at", addr)
//	}
package resolver

import (
	"context"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"

	"github.com/xfalcon/localresolve/internal/message"
	"github.com/xfalcon/localresolve/internal/transport"
)

// Resolver performs one-shot mDNS lookups. It holds configuration only and is
// safe for concurrent use; concurrent calls use independent sockets.
type Resolver struct {
	attempts       int
	attemptTimeout time.Duration
	interfaces     []net.Interface
	lock           transport.MulticastLock
	factory        transport.Factory
	log            log.Interface
}

// New returns a Resolver configured by opts.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		attempts:       DefaultAttempts,
		attemptTimeout: DefaultAttemptTimeout,
		lock:           transport.NopLock{},
		log: &log.Logger{
			Handler: cli.New(os.Stderr),
			Level:   log.InfoLevel,
		},
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.factory == nil {
		r.factory = r.udpFactory
	}

	return r, nil
}

// Attempts returns the configured number of receive attempts.
func (r *Resolver) Attempts() int { return r.attempts }

// AttemptTimeout returns the configured per-attempt timeout.
func (r *Resolver) AttemptTimeout() time.Duration { return r.attemptTimeout }

// Resolve returns the IPv4 address of hostname. A missing ".local" suffix is
// appended.
//
// On failure the error is a *ResolveError and matches ErrNoAddress, plus
// ErrExhausted when no usable reply arrived or ErrTransport when the network
// side failed. An invalid hostname is reported before anything is opened
// and wraps the *errors.ValidationError. When ctx ends first, the error wraps
// ctx.Err().
//
// The multicast lock is released and the socket closed before Resolve
// returns, whatever the outcome.
func (r *Resolver) Resolve(ctx context.Context, hostname string) (netip.Addr, error) {
	host := message.NormalizeHostname(hostname)
	entry := r.log.WithField("host", host)
	start := time.Now()

	state := StateIdle
	finish := func(next State, attempts int, cause error) error {
		state = next
		countOutcome(state)
		resolveDuration.UpdateDuration(start)
		entry.WithFields(log.Fields{
			"state":    state.String(),
			"attempts": attempts,
			"elapsed":  time.Since(start).String(),
		}).Debug("mdns: resolve finished")

		if state == StateSucceeded {
			return nil
		}
		return &ResolveError{Host: host, State: state, Attempts: attempts, Err: cause}
	}

	query, err := message.BuildQuery(hostname)
	if err != nil {
		return netip.Addr{}, finish(StateFailed, 0, err)
	}

	state = StateQuerying
	entry.WithFields(log.Fields{
		"state":    state.String(),
		"attempts": r.attempts,
		"timeout":  r.attemptTimeout.String(),
	}).Debug("mdns: querying")

	sess, err := openSession(ctx, r.lock, r.factory, entry)
	if err != nil {
		entry.WithError(err).Warn("mdns: failed to open multicast session")
		return netip.Addr{}, finish(StateFailed, 0, err)
	}

	addr, attempts, err := sess.exchange(ctx, query, r.attempts, r.attemptTimeout)

	if closeErr := sess.close(); closeErr != nil {
		entry.WithError(closeErr).Warn("mdns: failed to release multicast session")
	}

	switch {
	case err != nil:
		return netip.Addr{}, finish(StateFailed, attempts, err)
	case !addr.IsValid():
		return netip.Addr{}, finish(StateExhausted, attempts, nil)
	default:
		return addr, finish(StateSucceeded, attempts, nil)
	}
}

// Lookup is Resolve for callers that only need "resolved or not".
func (r *Resolver) Lookup(ctx context.Context, hostname string) (netip.Addr, bool) {
	addr, err := r.Resolve(ctx, hostname)
	return addr, err == nil
}

var defaultResolver, _ = New()

// Resolve resolves hostname with the default configuration.
func Resolve(ctx context.Context, hostname string) (netip.Addr, error) {
	return defaultResolver.Resolve(ctx, hostname)
}

// Lookup looks hostname up with the default configuration.
func Lookup(ctx context.Context, hostname string) (netip.Addr, bool) {
	return defaultResolver.Lookup(ctx, hostname)
}
