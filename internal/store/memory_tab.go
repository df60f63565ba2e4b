package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"viewsim/internal/shared/types"
	"viewsim/proxypool/model"
)

// MemoryTabStore keeps tabs in a map guarded by a RWMutex.
type MemoryTabStore struct {
	mu      sync.RWMutex
	tabs    map[int]*types.Tab
	lastID  int
	latency time.Duration
}

var _ TabRepository = (*MemoryTabStore)(nil)

func NewMemoryTabStore(latency time.Duration) *MemoryTabStore {
	return &MemoryTabStore{
		tabs:    make(map[int]*types.Tab),
		latency: latency,
	}
}

func (s *MemoryTabStore) GetAll(ctx context.Context) ([]*types.Tab, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*types.Tab) bool { return true }), nil
}

func (s *MemoryTabStore) GetByID(ctx context.Context, id int) (*types.Tab, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	tab, ok := s.tabs[id]
	if !ok {
		return nil, fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	return tab.Clone(), nil
}

func (s *MemoryTabStore) GetBySessionID(ctx context.Context, sessionID int) ([]*types.Tab, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(t *types.Tab) bool { return t.SessionID == sessionID }), nil
}

func (s *MemoryTabStore) Create(ctx context.Context, in *types.Tab) (*types.Tab, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tab := in.Clone()
	s.lastID++
	tab.ID = s.lastID
	tab.ViewDuration = 0
	tab.Errors = []string{}
	if tab.Status == "" {
		tab.Status = types.TabIdle
	}
	s.tabs[tab.ID] = tab
	return tab.Clone(), nil
}

func (s *MemoryTabStore) CreateMultiple(ctx context.Context, sessionID, count int, proxies []model.ProxyRecord) ([]*types.Tab, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("invalid tab count %d", count)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]*types.Tab, 0, count)
	for i := 0; i < count; i++ {
		var proxyUsed *string
		if len(proxies) > 0 {
			key := proxies[i%len(proxies)].Key()
			proxyUsed = &key
		}
		s.lastID++
		tab := &types.Tab{
			ID:        s.lastID,
			SessionID: sessionID,
			ProxyUsed: proxyUsed,
			Status:    types.TabIdle,
			Errors:    []string{},
		}
		s.tabs[tab.ID] = tab
		created = append(created, tab.Clone())
	}
	return created, nil
}

func (s *MemoryTabStore) Update(ctx context.Context, id int, patch types.TabPatch) (*types.Tab, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, ok := s.tabs[id]
	if !ok {
		return nil, fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	if patch.Status != nil {
		tab.Status = *patch.Status
	}
	if patch.ViewDuration != nil {
		tab.ViewDuration = *patch.ViewDuration
	}
	if patch.Errors != nil {
		tab.Errors = append([]string{}, patch.Errors...)
	}
	if patch.WindowID != nil {
		tab.WindowID = *patch.WindowID
	}
	return tab.Clone(), nil
}

func (s *MemoryTabStore) DeleteBySessionID(ctx context.Context, sessionID int) error {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, tab := range s.tabs {
		if tab.SessionID == sessionID {
			delete(s.tabs, id)
		}
	}
	return nil
}

// collect must be called with s.mu held. Results are ordered by id.
func (s *MemoryTabStore) collect(match func(*types.Tab) bool) []*types.Tab {
	out := make([]*types.Tab, 0)
	for _, tab := range s.tabs {
		if match(tab) {
			out = append(out, tab.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryTabStore) load(tabs []*types.Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tab := range tabs {
		s.tabs[tab.ID] = tab.Clone()
		if tab.ID > s.lastID {
			s.lastID = tab.ID
		}
	}
}
