package proxy

import (
	"context"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/apex/log"
)

// Resolver resolves a .local hostname. *resolver.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, hostname string) (netip.Addr, error)
}

// AddressSource reports the address currently known for the target host.
type AddressSource interface {
	Current() (netip.Addr, bool)
}

// Refresher keeps the address of one .local host up to date by resolving it
// periodically. A failed resolve keeps the last known address.
type Refresher struct {
	resolver Resolver
	host     string
	interval time.Duration
	log      log.Interface

	addr atomic.Pointer[netip.Addr]
}

// NewRefresher returns a Refresher for host. Nothing is resolved until Run
// or Refresh is called.
func NewRefresher(r Resolver, host string, interval time.Duration, logger log.Interface) *Refresher {
	if logger == nil {
		logger = log.Log
	}
	return &Refresher{
		resolver: r,
		host:     host,
		interval: interval,
		log:      logger.WithField("host", host),
	}
}

// Current returns the last resolved address.
func (r *Refresher) Current() (netip.Addr, bool) {
	p := r.addr.Load()
	if p == nil {
		return netip.Addr{}, false
	}
	return *p, true
}

// Refresh resolves the host once and stores the address on success.
func (r *Refresher) Refresh(ctx context.Context) error {
	addr, err := r.resolver.Resolve(ctx, r.host)
	if err != nil {
		refreshFailure.Inc()
		return err
	}

	refreshSuccess.Inc()
	if prev := r.addr.Swap(&addr); prev == nil || *prev != addr {
		r.log.WithField("addr", addr.String()).Info("proxy: target address changed")
	}
	return nil
}

// Run refreshes immediately and then every interval until ctx ends. It
// returns nil on cancellation.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			r.log.WithError(err).Debug("proxy: refresh failed, keeping last address")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
