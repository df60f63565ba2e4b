package globalstate

import (
	"sync"
	"time"
)

const (
	StatusInitializing = "Initializing..."
	StatusReady        = "Ready"
	StatusStopping     = "Shutting down"
)

// StatusManager holds the process-wide status line shown by /api/status.
type StatusManager struct {
	mu      sync.RWMutex
	status  string
	changed time.Time
}

// GlobalStatus is the process-wide instance.
var GlobalStatus = &StatusManager{status: StatusInitializing, changed: time.Now()}

// Set 方法用于安全地更新状态。
func (sm *StatusManager) Set(newStatus string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.status = newStatus
	sm.changed = time.Now()
}

// Get 方法用于安全地读取状态。
func (sm *StatusManager) Get() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.status
}

// Since reports how long the current status has been in effect.
func (sm *StatusManager) Since() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return time.Since(sm.changed)
}
