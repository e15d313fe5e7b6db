package proxy

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedResolver struct {
	mu      sync.Mutex
	results []netip.Addr // invalid entries fail
	calls   int
	hosts   []string
}

func (r *scriptedResolver) Resolve(_ context.Context, host string) (netip.Addr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hosts = append(r.hosts, host)
	i := r.calls
	r.calls++
	if i >= len(r.results) {
		i = len(r.results) - 1
	}
	if addr := r.results[i]; addr.IsValid() {
		return addr, nil
	}
	return netip.Addr{}, errors.New("no answer")
}

func (r *scriptedResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestRefresher_Refresh(t *testing.T) {
	first := netip.MustParseAddr("10.0.0.5")
	second := netip.MustParseAddr("10.0.0.6")
	res := &scriptedResolver{results: []netip.Addr{{}, first, {}, second}}
	r := NewRefresher(res, "zwift.local", time.Second, quietLogger)

	_, ok := r.Current()
	assert.False(t, ok, "no address before the first refresh")

	require.Error(t, r.Refresh(context.Background()))
	_, ok = r.Current()
	assert.False(t, ok)

	require.NoError(t, r.Refresh(context.Background()))
	got, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, first, got)

	require.Error(t, r.Refresh(context.Background()))
	got, _ = r.Current()
	assert.Equal(t, first, got, "failed refresh keeps the last address")

	require.NoError(t, r.Refresh(context.Background()))
	got, _ = r.Current()
	assert.Equal(t, second, got)

	assert.Equal(t, []string{"zwift.local", "zwift.local", "zwift.local", "zwift.local"}, res.hosts)
}

func TestRefresher_Run(t *testing.T) {
	addr := netip.MustParseAddr("10.0.0.5")
	res := &scriptedResolver{results: []netip.Addr{{}, {}, addr}}
	r := NewRefresher(res, "zwift.local", 10*time.Millisecond, quietLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, ok := r.Current()
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	got, _ := r.Current()
	assert.Equal(t, addr, got)
	assert.GreaterOrEqual(t, res.callCount(), 3)
}

func TestRefresher_RunStopsOnCanceledContext(t *testing.T) {
	res := &scriptedResolver{results: []netip.Addr{{}}}
	r := NewRefresher(res, "zwift.local", time.Hour, quietLogger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, 1, res.callCount())
}
