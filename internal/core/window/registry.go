package window

import (
	"context"
	"sync"
	"time"

	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/metrics"
)

// Registry keeps one cancellable close-watcher per tab id. A watch is
// deregistered when the close is detected or when it is cancelled.
type Registry struct {
	mu      sync.Mutex
	watches map[int]*watch
	wg      sync.WaitGroup
}

type watch struct {
	handle Handle
	cancel context.CancelFunc
}

func NewRegistry() *Registry {
	return &Registry{watches: make(map[int]*watch)}
}

// Watch polls h every interval and calls onClosed once after the window is
// closed. An existing watch for the same tab is cancelled and its window
// closed first.
func (r *Registry) Watch(tabID int, h Handle, interval time.Duration, onClosed func(tabID int)) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &watch{handle: h, cancel: cancel}

	r.mu.Lock()
	prev, replaced := r.watches[tabID]
	if replaced {
		prev.cancel()
	} else {
		metrics.OpenWindows.Inc()
	}
	r.watches[tabID] = w
	r.mu.Unlock()

	if replaced && prev.handle != h {
		if err := prev.handle.Close(); err != nil {
			l := logger.WithComponent("Window")
			l.Warn().Err(err).Int("tab_id", tabID).Str("window_id", prev.handle.ID()).Msg("Failed to close replaced window.")
		}
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if !poll(ctx, h, interval) {
			return
		}
		// Only the current watch for the tab may deregister it.
		r.mu.Lock()
		current := r.watches[tabID] == w
		if current {
			delete(r.watches, tabID)
			metrics.OpenWindows.Dec()
		}
		r.mu.Unlock()
		cancel()
		if current {
			logger.WithComponent("Window").Debug().Int("tab_id", tabID).Str("window_id", h.ID()).Msg("Window closed by user.")
			onClosed(tabID)
		}
	}()
}

// poll returns true once h reports closed, false when ctx is cancelled first.
func poll(ctx context.Context, h Handle, interval time.Duration) bool {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if h.Closed() {
				return true
			}
		}
	}
}

// Cancel stops watching a tab and returns its handle, if any.
func (r *Registry) Cancel(tabID int) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watches[tabID]
	if !ok {
		return nil, false
	}
	w.cancel()
	delete(r.watches, tabID)
	metrics.OpenWindows.Dec()
	return w.handle, true
}

// Watching reports whether a watch is registered for the tab.
func (r *Registry) Watching(tabID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.watches[tabID]
	return ok
}

// Len returns the number of active watches.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}

// CancelAll stops every watch and waits for the watcher goroutines to exit.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	for id, w := range r.watches {
		w.cancel()
		delete(r.watches, id)
		metrics.OpenWindows.Dec()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
