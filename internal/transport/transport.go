// Package transport provides the network side of an mDNS conversation: a
// multicast UDP socket that can send one query and receive datagrams under a
// context deadline, plus the platform multicast permission that has to be
// held while the socket is open.
//
// The resolver only talks to the Transport interface so tests can replace the
// socket with a scripted double.
package transport

import (
	"context"
	"net"
)

// Transport abstracts network operations for sending and receiving mDNS packets.
//
// Implementations:
//   - UDPv4Transport: IPv4 multicast socket bound to 0.0.0.0:5353
//   - test doubles in the resolver package
type Transport interface {
	// Send transmits packet to dest (normally 224.0.0.251:5353).
	//
	// Returns a *errors.NetworkError on failure or when ctx is already done.
	Send(ctx context.Context, packet []byte, dest net.Addr) error

	// Receive waits for one datagram.
	//
	// The ctx deadline becomes the socket read deadline, and cancelling ctx
	// unblocks a pending read. An expired deadline is reported as a
	// *errors.NetworkError whose Timeout method returns true.
	//
	// The returned packet is owned by the caller.
	Receive(ctx context.Context) (packet []byte, src net.Addr, err error)

	// Close leaves the multicast group and then closes the socket.
	//
	// Errors from both steps are returned, never swallowed.
	Close() error
}

// Factory opens a Transport. The resolver opens one per resolve call.
type Factory func(ctx context.Context) (Transport, error)
