package transport

import (
	"context"
	goerrors "errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/net/ipv4"

	"github.com/xfalcon/localresolve/internal/errors"
	"github.com/xfalcon/localresolve/internal/protocol"
)

// GroupAddr is the IPv4 mDNS destination, 224.0.0.251:5353.
var GroupAddr = &net.UDPAddr{
	IP:   net.ParseIP(protocol.MulticastAddrIPv4),
	Port: protocol.Port,
}

// multicastTTL is the IP TTL for outgoing multicast per RFC 6762 §11.
const multicastTTL = 255

// UDPv4Transport implements Transport for IPv4 UDP multicast.
//
// The socket is bound to 0.0.0.0:5353 with address/port reuse enabled so it
// can coexist with a system responder (avahi, mDNSResponder) that already
// owns the port. Replies are accepted from any source, on the group or
// unicast to us.
type UDPv4Transport struct {
	conn     net.PacketConn
	ipv4Conn *ipv4.PacketConn
	joined   []*net.Interface // interfaces the group was joined on; nil entry = system default
	log      log.Interface
}

// UDPOption configures NewUDPv4Transport.
type UDPOption func(*udpConfig)

type udpConfig struct {
	interfaces []net.Interface
	logger     log.Interface
}

// WithInterfaces restricts group membership to ifaces. By default every
// interface that is up and multicast capable is used. Group datagrams are
// only delivered for memberships this socket holds (IP_MULTICAST_ALL is
// cleared on Linux); unicast replies to the socket are accepted from any
// interface.
func WithInterfaces(ifaces ...net.Interface) UDPOption {
	return func(c *udpConfig) {
		c.interfaces = ifaces
	}
}

// WithLogger sets the logger used for best-effort setup steps.
func WithLogger(logger log.Interface) UDPOption {
	return func(c *udpConfig) {
		c.logger = logger
	}
}

// NewUDPv4Transport opens a UDP socket on the mDNS port and joins the
// 224.0.0.251 group.
//
// Group membership succeeds if at least one interface could join. A socket
// that cannot be bound, or a group that cannot be joined anywhere, yields a
// *errors.NetworkError and no open resources.
func NewUDPv4Transport(ctx context.Context, opts ...UDPOption) (*UDPv4Transport, error) {
	cfg := udpConfig{logger: log.Log}
	for _, opt := range opts {
		opt(&cfg)
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = setSocketOptions(fd)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	listenAddr := net.JoinHostPort(net.IPv4zero.String(), strconv.Itoa(protocol.Port))
	conn, err := lc.ListenPacket(ctx, "udp4", listenAddr)
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "create socket",
			Err:       err,
			Details:   "failed to bind " + listenAddr,
		}
	}

	if udpConn, ok := conn.(*net.UDPConn); ok {
		// Best effort; the kernel default is enough for a single reply.
		if err := udpConn.SetReadBuffer(65536); err != nil {
			cfg.logger.WithError(err).Debug("transport: failed to set read buffer size")
		}
	}

	t := &UDPv4Transport{
		conn:     conn,
		ipv4Conn: ipv4.NewPacketConn(conn),
		log:      cfg.logger,
	}

	if err := t.join(cfg.interfaces); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := t.ipv4Conn.SetMulticastTTL(multicastTTL); err != nil {
		t.log.WithError(err).Debug("transport: failed to set multicast TTL")
	}
	if err := t.ipv4Conn.SetMulticastLoopback(true); err != nil {
		t.log.WithError(err).Debug("transport: failed to enable multicast loopback")
	}
	if len(cfg.interfaces) == 1 {
		if err := t.ipv4Conn.SetMulticastInterface(&cfg.interfaces[0]); err != nil {
			t.log.WithError(err).WithField("interface", cfg.interfaces[0].Name).
				Debug("transport: failed to pin outgoing multicast interface")
		}
	}

	return t, nil
}

// join adds group membership on ifaces, or on every multicast-capable
// interface when ifaces is empty.
func (t *UDPv4Transport) join(ifaces []net.Interface) error {
	group := &net.UDPAddr{IP: GroupAddr.IP}

	candidates := ifaces
	if len(candidates) == 0 {
		all, err := net.Interfaces()
		if err != nil {
			t.log.WithError(err).Debug("transport: failed to list interfaces")
		}
		for _, iface := range all {
			if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagMulticast != 0 {
				candidates = append(candidates, iface)
			}
		}
	}

	var errs *multierror.Error
	for i := range candidates {
		iface := &candidates[i]
		if err := t.ipv4Conn.JoinGroup(iface, group); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", iface.Name, err))
			continue
		}
		t.joined = append(t.joined, iface)
	}

	// No usable interface list: let the kernel pick the default route.
	if len(candidates) == 0 {
		if err := t.ipv4Conn.JoinGroup(nil, group); err != nil {
			errs = multierror.Append(errs, err)
		} else {
			t.joined = append(t.joined, nil)
		}
	}

	if len(t.joined) == 0 {
		return &errors.NetworkError{
			Operation: "join multicast group",
			Err:       errs.ErrorOrNil(),
			Details:   fmt.Sprintf("no interface could join %s", protocol.MulticastAddrIPv4),
		}
	}

	if errs.ErrorOrNil() != nil {
		t.log.WithError(errs).WithField("joined", len(t.joined)).
			Debug("transport: multicast group joined on a subset of interfaces")
	}
	return nil
}

// Send transmits a packet to the specified destination address.
func (t *UDPv4Transport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	select {
	case <-ctx.Done():
		return &errors.NetworkError{
			Operation: "send query",
			Err:       ctx.Err(),
			Details:   "context canceled before send",
		}
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(deadline); err != nil {
			return &errors.NetworkError{
				Operation: "set write timeout",
				Err:       err,
				Details:   fmt.Sprintf("failed to set deadline %v", deadline),
			}
		}
	}

	n, err := t.conn.WriteTo(packet, dest)
	if err != nil {
		return &errors.NetworkError{
			Operation: "send query",
			Err:       err,
			Details:   fmt.Sprintf("failed to send %d bytes to %s", len(packet), dest),
		}
	}

	if n != len(packet) {
		return &errors.NetworkError{
			Operation: "send query",
			Err:       fmt.Errorf("partial write: %d/%d bytes", n, len(packet)),
			Details:   "incomplete transmission",
		}
	}

	return nil
}

// Receive waits for an incoming packet, respecting context cancellation/deadline.
func (t *UDPv4Transport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, nil, &errors.NetworkError{
			Operation: "receive response",
			Err:       ctx.Err(),
			Details:   "context canceled before receive",
		}
	default:
	}

	deadline, _ := ctx.Deadline() // zero value clears any earlier deadline
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, nil, &errors.NetworkError{
			Operation: "set read timeout",
			Err:       err,
			Details:   fmt.Sprintf("failed to set deadline %v", deadline),
		}
	}

	// Cancellation has no deadline of its own; force the pending read to
	// return by moving the deadline into the past.
	stop := context.AfterFunc(ctx, func() {
		_ = t.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buffer := *bufPtr

	n, srcAddr, err := t.conn.ReadFrom(buffer)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !goerrors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, nil, &errors.NetworkError{
				Operation: "receive response",
				Err:       ctxErr,
				Details:   "context canceled during receive",
			}
		}

		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil, &errors.NetworkError{
				Operation: "receive response",
				Err:       err,
				Details:   "timeout",
			}
		}

		return nil, nil, &errors.NetworkError{
			Operation: "receive response",
			Err:       err,
			Details:   "failed to read from socket",
		}
	}

	result := make([]byte, n)
	copy(result, buffer[:n])
	return result, srcAddr, nil
}

// LocalAddr returns the bound socket address.
func (t *UDPv4Transport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Close leaves the multicast group on every joined interface, then closes
// the socket. All failures are returned.
func (t *UDPv4Transport) Close() error {
	if t.conn == nil {
		return nil
	}

	var result *multierror.Error
	group := &net.UDPAddr{IP: GroupAddr.IP}
	for _, iface := range t.joined {
		if err := t.ipv4Conn.LeaveGroup(iface, group); err != nil {
			name := "default"
			if iface != nil {
				name = iface.Name
			}
			result = multierror.Append(result, &errors.NetworkError{
				Operation: "leave multicast group",
				Err:       err,
				Details:   "interface " + name,
			})
		}
	}
	t.joined = nil

	if err := t.conn.Close(); err != nil {
		result = multierror.Append(result, &errors.NetworkError{
			Operation: "close socket",
			Err:       err,
			Details:   "failed to close UDP connection",
		})
	}

	return result.ErrorOrNil()
}
