package resolver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/apex/log"

	"github.com/xfalcon/localresolve/internal/transport"
)

const (
	// DefaultAttempts is the number of receive attempts per resolve call.
	DefaultAttempts = 5

	// DefaultAttemptTimeout bounds each receive attempt.
	DefaultAttemptTimeout = 2 * time.Second
)

// Option is a functional option for configuring a Resolver.
//
// Options are applied in order by New; the first one that returns an error
// aborts construction.
//
// Example:
//
//	r, err := resolver.New(
//	    resolver.WithAttempts(3),
//	    resolver.WithAttemptTimeout(500*time.Millisecond),
//	)
type Option func(*Resolver) error

// WithAttempts sets how many datagrams (or timeouts) a resolve call waits
// for before giving up. Default DefaultAttempts.
func WithAttempts(n int) Option {
	return func(r *Resolver) error {
		if n <= 0 {
			return errors.New("attempts must be greater than 0")
		}
		r.attempts = n
		return nil
	}
}

// WithAttemptTimeout sets the deadline of a single receive attempt.
// Default DefaultAttemptTimeout. The worst-case duration of a resolve call
// is attempts × timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(r *Resolver) error {
		if d <= 0 {
			return errors.New("attempt timeout must be greater than 0")
		}
		r.attemptTimeout = d
		return nil
	}
}

// WithLogger sets the logger. Resolve logs state transitions at debug level.
func WithLogger(logger log.Interface) Option {
	return func(r *Resolver) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		r.log = logger
		return nil
	}
}

// WithMulticastLock sets the platform lock held around every session.
// Default transport.NopLock.
//
// Share a *transport.CountingLock between resolvers when the platform lock
// must not be acquired twice.
func WithMulticastLock(lock transport.MulticastLock) Option {
	return func(r *Resolver) error {
		if lock == nil {
			return errors.New("multicast lock cannot be nil")
		}
		r.lock = lock
		return nil
	}
}

// WithInterfaces joins the multicast group only on ifaces instead of every
// multicast-capable interface. Ignored when WithTransportFactory is used.
func WithInterfaces(ifaces ...net.Interface) Option {
	return func(r *Resolver) error {
		if len(ifaces) == 0 {
			return errors.New("interface list cannot be empty")
		}
		r.interfaces = ifaces
		return nil
	}
}

// WithTransportFactory replaces the UDP multicast socket, e.g. with a test
// double. The factory is called once per resolve call.
func WithTransportFactory(factory transport.Factory) Option {
	return func(r *Resolver) error {
		if factory == nil {
			return errors.New("transport factory cannot be nil")
		}
		r.factory = factory
		return nil
	}
}

// udpFactory opens the production transport with the resolver's interface
// selection and logger.
func (r *Resolver) udpFactory(ctx context.Context) (transport.Transport, error) {
	opts := []transport.UDPOption{transport.WithLogger(r.log)}
	if len(r.interfaces) > 0 {
		opts = append(opts, transport.WithInterfaces(r.interfaces...))
	}

	t, err := transport.NewUDPv4Transport(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return t, nil
}
