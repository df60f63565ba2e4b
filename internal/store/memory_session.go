package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"viewsim/internal/shared/types"
)

// MemorySessionStore keeps sessions in a map guarded by a RWMutex.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int]*types.Session
	lastID   int
	latency  time.Duration
	now      func() time.Time
}

var _ SessionRepository = (*MemorySessionStore)(nil)

func NewMemorySessionStore(latency time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[int]*types.Session),
		latency:  latency,
		now:      time.Now,
	}
}

func (s *MemorySessionStore) GetAll(ctx context.Context) ([]*types.Session, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemorySessionStore) GetByID(ctx context.Context, id int) (*types.Session, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	return sess.Clone(), nil
}

func (s *MemorySessionStore) Create(ctx context.Context, in *types.Session) (*types.Session, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := in.Clone()
	s.lastID++
	sess.ID = s.lastID
	sess.StartTime = s.now()
	sess.ViewCount = 0
	s.sessions[sess.ID] = sess
	return sess.Clone(), nil
}

func (s *MemorySessionStore) Update(ctx context.Context, id int, patch types.SessionPatch) (*types.Session, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if patch.Status != nil {
		sess.Status = *patch.Status
	}
	if patch.ViewCount != nil {
		sess.ViewCount = *patch.ViewCount
	}
	if patch.VideoURL != nil {
		sess.VideoURL = *patch.VideoURL
	}
	return sess.Clone(), nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, id int) error {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// load inserts records as-is, keeping their ids. Used for fixture seeding.
func (s *MemorySessionStore) load(sessions []*types.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess.Clone()
		if sess.ID > s.lastID {
			s.lastID = sess.ID
		}
	}
}
