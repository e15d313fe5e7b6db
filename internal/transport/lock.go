package transport

import (
	goerrors "errors"
	"sync"
)

// MulticastLock is the platform permission that lets multicast traffic reach
// the process while a transport is open. Mobile platforms filter multicast
// unless such a lock is held; desktop systems need nothing.
//
// Acquire is called before the socket is opened and Release after it is
// closed, on every exit path.
type MulticastLock interface {
	Acquire() error
	Release() error
}

// NopLock is the MulticastLock for platforms that do not filter multicast.
type NopLock struct{}

// Acquire always succeeds.
func (NopLock) Acquire() error { return nil }

// Release always succeeds.
func (NopLock) Release() error { return nil }

// ErrLockNotHeld is returned by CountingLock.Release without a matching Acquire.
var ErrLockNotHeld = goerrors.New("multicast lock not held")

// CountingLock wraps platform acquire/release hooks with a reference count so
// concurrent sessions can share one platform lock: the hook runs on the first
// Acquire and on the last Release only. Safe for concurrent use.
type CountingLock struct {
	acquire func() error
	release func() error

	mu    sync.Mutex
	count int
}

// NewCountingLock returns a CountingLock around the given hooks. A nil hook
// is treated as a no-op.
func NewCountingLock(acquire, release func() error) *CountingLock {
	return &CountingLock{acquire: acquire, release: release}
}

// Acquire takes a reference, running the acquire hook when none was held.
// When the hook fails no reference is taken.
func (l *CountingLock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 && l.acquire != nil {
		if err := l.acquire(); err != nil {
			return err
		}
	}
	l.count++
	return nil
}

// Release drops a reference, running the release hook when it was the last.
func (l *CountingLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 {
		return ErrLockNotHeld
	}
	l.count--
	if l.count == 0 && l.release != nil {
		return l.release()
	}
	return nil
}

// Held reports whether at least one reference is outstanding.
func (l *CountingLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count > 0
}
