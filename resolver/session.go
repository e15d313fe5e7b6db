package resolver

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-multierror"

	"github.com/xfalcon/localresolve/internal/errors"
	"github.com/xfalcon/localresolve/internal/message"
	"github.com/xfalcon/localresolve/internal/transport"
)

// session owns the multicast conversation of one resolve call: the platform
// lock, the transport, and the receive loop. It is never shared.
type session struct {
	lock      transport.MulticastLock
	transport transport.Transport
	log       log.Interface
}

// openSession acquires lock and then opens a transport. On failure anything
// already acquired is released before returning.
func openSession(ctx context.Context, lock transport.MulticastLock, factory transport.Factory, logger log.Interface) (*session, error) {
	if err := lock.Acquire(); err != nil {
		return nil, &errors.NetworkError{
			Operation: "acquire multicast lock",
			Err:       err,
		}
	}

	t, err := factory(ctx)
	if err != nil {
		if relErr := lock.Release(); relErr != nil {
			logger.WithError(relErr).Warn("mdns: failed to release multicast lock")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	return &session{lock: lock, transport: t, log: logger}, nil
}

// exchange sends query once and then waits for up to attempts datagrams,
// each receive bounded by timeout. It returns the first A record found and
// the number of receive attempts used.
//
// A timed-out attempt, a malformed datagram, and a datagram without an A
// record each use up one attempt. When all attempts are spent, the error
// is nil and the address is invalid. Send/receive I/O failures and the end of
// ctx are returned as errors.
func (s *session) exchange(ctx context.Context, query []byte, attempts int, timeout time.Duration) (netip.Addr, int, error) {
	if err := s.transport.Send(ctx, query, transport.GroupAddr); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return netip.Addr{}, 0, ctxErr
		}
		return netip.Addr{}, 0, err
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return netip.Addr{}, attempt - 1, err
		}

		receiveAttempts.Inc()
		entry := s.log.WithField("attempt", attempt)

		recvCtx, cancel := context.WithTimeout(ctx, timeout)
		packet, src, err := s.transport.Receive(recvCtx)
		cancel()

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return netip.Addr{}, attempt, ctxErr
			}
			if errors.IsTimeout(err) {
				entry.Debug("mdns: receive attempt timed out")
				continue
			}
			return netip.Addr{}, attempt, err
		}

		addr, err := message.FirstA(packet)
		if err != nil {
			malformedDatagrams.Inc()
			entry.WithFields(log.Fields{
				"from":  fmt.Sprint(src),
				"bytes": len(packet),
			}).WithError(err).Debug("mdns: datagram carries no usable A record")
			continue
		}

		entry.WithFields(log.Fields{
			"from":    fmt.Sprint(src),
			"address": addr.String(),
		}).Debug("mdns: A record received")
		return addr, attempt, nil
	}

	return netip.Addr{}, attempts, nil
}

// close leaves the group and closes the socket (both via Transport.Close),
// then releases the lock. Both steps always run.
func (s *session) close() error {
	var result *multierror.Error

	if err := s.transport.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.lock.Release(); err != nil {
		result = multierror.Append(result, &errors.NetworkError{
			Operation: "release multicast lock",
			Err:       err,
		})
	}

	return result.ErrorOrNil()
}
