// Package proxy serves DNS for a LAN client that must reach a .local host
// under public names.
//
// Queries for the configured override domains are answered with the address
// most recently resolved for the target host. Everything else is forwarded
// unchanged to an upstream server.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/miekg/dns"
)

const (
	// DefaultTTL is the TTL of synthesized override answers, in seconds.
	DefaultTTL = 60

	shutdownTimeout = 5 * time.Second
)

// Exchanger sends a query to a DNS server. *dns.Client satisfies it.
type Exchanger interface {
	Exchange(m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// Server is a dns.Handler that overrides a fixed set of names.
type Server struct {
	upstream  string
	domains   map[string]struct{}
	ttl       uint32
	source    AddressSource
	client    Exchanger
	log       log.Interface
	onStarted func()
}

// Option configures a Server.
type Option func(*Server) error

// WithTTL sets the TTL of override answers.
func WithTTL(ttl uint32) Option {
	return func(s *Server) error {
		if ttl == 0 {
			return errors.New("ttl must be greater than 0")
		}
		s.ttl = ttl
		return nil
	}
}

// WithExchanger replaces the client used to reach the upstream.
func WithExchanger(c Exchanger) Option {
	return func(s *Server) error {
		if c == nil {
			return errors.New("exchanger cannot be nil")
		}
		s.client = c
		return nil
	}
}

// WithLogger sets the server logger.
func WithLogger(logger log.Interface) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.log = logger
		return nil
	}
}

// WithNotifyStarted registers fn to run once Serve is accepting queries.
func WithNotifyStarted(fn func()) Option {
	return func(s *Server) error {
		s.onStarted = fn
		return nil
	}
}

// NewServer returns a Server that answers domains from source and forwards
// the rest to upstream (host:port).
func NewServer(upstream string, domains []string, source AddressSource, opts ...Option) (*Server, error) {
	if source == nil {
		return nil, errors.New("address source cannot be nil")
	}
	if _, _, err := net.SplitHostPort(upstream); err != nil {
		return nil, fmt.Errorf("upstream: %w", err)
	}
	if len(domains) == 0 {
		return nil, errors.New("override domains cannot be empty")
	}

	s := &Server{
		upstream: upstream,
		domains:  make(map[string]struct{}, len(domains)),
		ttl:      DefaultTTL,
		source:   source,
		client:   &dns.Client{Net: "udp", Timeout: 2 * time.Second},
		log:      log.Log,
	}
	for _, d := range domains {
		s.domains[dns.CanonicalName(d)] = struct{}{}
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// IsOverride reports whether name is answered locally.
func (s *Server) IsOverride(name string) bool {
	_, ok := s.domains[dns.CanonicalName(name)]
	return ok
}

// ServeDNS implements dns.Handler.
func (s *Server) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	if len(r.Question) == 0 {
		failedRequests.Inc()
		m := new(dns.Msg)
		m.SetRcodeFormatError(r)
		s.write(w, m)
		return
	}

	q := r.Question[0]
	entry := s.log.WithFields(log.Fields{
		"name": strings.ToLower(q.Name),
		"type": dns.TypeToString[q.Qtype],
	})

	if s.IsOverride(q.Name) {
		s.answerOverride(w, r, q, entry)
		return
	}
	s.forward(w, r, entry)
}

func (s *Server) answerOverride(w dns.ResponseWriter, r *dns.Msg, q dns.Question, entry log.Interface) {
	addr, ok := s.source.Current()
	if !ok {
		failedRequests.Inc()
		entry.Debug("proxy: no address known yet")
		dns.HandleFailed(w, r)
		return
	}

	overrideRequests.Inc()
	m := new(dns.Msg)
	m.SetReply(r)
	m.Authoritative = true

	if q.Qclass == dns.ClassINET && (q.Qtype == dns.TypeA || q.Qtype == dns.TypeANY) {
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   q.Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    s.ttl,
			},
			A: addr.AsSlice(),
		})
	}

	entry.WithField("addr", addr.String()).Debug("proxy: override answered")
	s.write(w, m)
}

func (s *Server) forward(w dns.ResponseWriter, r *dns.Msg, entry log.Interface) {
	resp, rtt, err := s.client.Exchange(r, s.upstream)
	if err != nil {
		failedRequests.Inc()
		entry.WithError(err).Warn("proxy: upstream exchange failed")
		dns.HandleFailed(w, r)
		return
	}

	forwardRequests.Inc()
	entry.WithField("rtt", rtt.String()).Debug("proxy: forwarded")
	s.write(w, resp)
}

func (s *Server) write(w dns.ResponseWriter, m *dns.Msg) {
	if err := w.WriteMsg(m); err != nil {
		s.log.WithError(err).Debug("proxy: failed to write response")
	}
}

// ListenAndServe listens on addr (UDP) and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, pc)
}

// Serve answers queries arriving on pc until ctx ends. pc is closed on
// return.
func (s *Server) Serve(ctx context.Context, pc net.PacketConn) error {
	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		Handler:           s,
		NotifyStartedFunc: func() { close(started) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ActivateAndServe()
	}()

	select {
	case err := <-errCh:
		_ = pc.Close()
		return err
	case <-started:
	}

	s.log.WithField("addr", pc.LocalAddr().String()).Info("proxy: serving DNS")
	if s.onStarted != nil {
		s.onStarted()
	}

	select {
	case err := <-errCh:
		_ = pc.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.ShutdownContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
