package window

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	id     string
	closed atomic.Bool
}

func (h *fakeHandle) ID() string   { return h.id }
func (h *fakeHandle) Closed() bool { return h.closed.Load() }
func (h *fakeHandle) Close() error { h.closed.Store(true); return nil }

func TestRegistry_WatchDetectsClose(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{id: "w1"}

	var mu sync.Mutex
	var closedTabs []int
	done := make(chan struct{})
	r.Watch(3, h, 5*time.Millisecond, func(tabID int) {
		mu.Lock()
		closedTabs = append(closedTabs, tabID)
		mu.Unlock()
		close(done)
	})
	require.True(t, r.Watching(3))
	require.Equal(t, 1, r.Len())

	h.closed.Store(true)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close was not detected")
	}

	mu.Lock()
	require.Equal(t, []int{3}, closedTabs)
	mu.Unlock()
	require.False(t, r.Watching(3))
	require.Equal(t, 0, r.Len())
}

func TestRegistry_CancelStopsWatch(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{id: "w1"}
	var fired atomic.Bool
	r.Watch(1, h, 5*time.Millisecond, func(int) { fired.Store(true) })

	got, ok := r.Cancel(1)
	require.True(t, ok)
	require.Equal(t, "w1", got.ID())

	h.closed.Store(true)
	time.Sleep(30 * time.Millisecond)
	require.False(t, fired.Load())

	_, ok = r.Cancel(1)
	require.False(t, ok)
}

func TestRegistry_ReplaceWatch(t *testing.T) {
	r := NewRegistry()
	first := &fakeHandle{id: "first"}
	second := &fakeHandle{id: "second"}
	var calls atomic.Int32
	r.Watch(1, first, 5*time.Millisecond, func(int) { calls.Add(1) })
	r.Watch(1, second, 5*time.Millisecond, func(int) { calls.Add(1) })
	require.Equal(t, 1, r.Len())

	// The replaced window is closed and its watch does not fire.
	require.True(t, first.Closed())
	require.False(t, second.Closed())
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int32(0), calls.Load())

	r.CancelAll()
	require.Equal(t, 0, r.Len())
}

func TestDisabledOpener(t *testing.T) {
	_, err := DisabledOpener{}.Open(context.Background(), "https://youtu.be/x", "id")
	require.ErrorIs(t, err, ErrWindowBlocked)
}
