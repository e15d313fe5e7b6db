package resolver

import (
	"context"
	"encoding/binary"
	"net"
	"os"
	"sync"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"

	"github.com/xfalcon/localresolve/internal/errors"
	"github.com/xfalcon/localresolve/internal/transport"
)

var quietLogger = &log.Logger{Handler: discard.New(), Level: log.DebugLevel}

// step is one scripted Receive outcome. A zero step is a silent attempt.
type step struct {
	packet []byte
	err    error
}

var silent = step{}

// scriptedTransport replays steps on Receive. Once the script runs out it
// stays silent, so every further Receive waits for its deadline.
type scriptedTransport struct {
	mu       sync.Mutex
	steps    []step
	sent     [][]byte
	dests    []net.Addr
	receives int
	closes   int
	sendErr  error
	closeErr error
	events   *eventLog
}

func (s *scriptedTransport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.add("send")
	if err := ctx.Err(); err != nil {
		return &errors.NetworkError{Operation: "send query", Err: err, Details: "context canceled before send"}
	}
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, append([]byte(nil), packet...))
	s.dests = append(s.dests, dest)
	return nil
}

func (s *scriptedTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	s.mu.Lock()
	s.receives++
	next := silent
	if len(s.steps) > 0 {
		next, s.steps = s.steps[0], s.steps[1:]
	}
	s.mu.Unlock()

	switch {
	case next.err != nil:
		return nil, nil, next.err
	case next.packet != nil:
		return next.packet, &net.UDPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 5353}, nil
	}

	<-ctx.Done()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, nil, &errors.NetworkError{Operation: "receive response", Err: os.ErrDeadlineExceeded, Details: "timeout"}
	}
	return nil, nil, &errors.NetworkError{Operation: "receive response", Err: ctx.Err(), Details: "context canceled during receive"}
}

func (s *scriptedTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	s.events.add("transport close")
	return s.closeErr
}

func (s *scriptedTransport) receiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receives
}

// factoryFor returns a transport.Factory handing out tr and counting opens.
func factoryFor(tr *scriptedTransport, opened *int) transport.Factory {
	return func(context.Context) (transport.Transport, error) {
		if opened != nil {
			*opened++
		}
		tr.events.add("transport open")
		return tr, nil
	}
}

// eventLog records the order of session steps.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) add(ev string) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventLog) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

// recordingLock is a MulticastLock that logs to an eventLog.
type recordingLock struct {
	events     *eventLog
	acquireErr error
	held       int
}

func (l *recordingLock) Acquire() error {
	l.events.add("lock acquire")
	if l.acquireErr != nil {
		return l.acquireErr
	}
	l.held++
	return nil
}

func (l *recordingLock) Release() error {
	l.events.add("lock release")
	l.held--
	return nil
}

// aResponse builds a response with one compressed-name A record answer.
func aResponse(ip [4]byte) []byte {
	msg := []byte{
		0x00, 0x00, 0x84, 0x00,
		0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
		0x05, 'z', 'w', 'i', 'f', 't', 0x05, 'l', 'o', 'c', 'a', 'l', 0x00,
		0x00, 0x01, 0x00, 0x01,
		0xC0, 0x0C,
		0x00, 0x01, 0x80, 0x01,
	}
	msg = binary.BigEndian.AppendUint32(msg, 120)
	msg = binary.BigEndian.AppendUint16(msg, 4)
	return append(msg, ip[:]...)
}
