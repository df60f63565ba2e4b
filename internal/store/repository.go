// Package store holds the session and tab repositories. The in-memory
// implementations stand in for a database and can be swapped for a persistent
// backend without touching the simulator.
package store

import (
	"context"
	"errors"

	"viewsim/internal/shared/types"
	"viewsim/proxypool/model"
)

// ErrNotFound is returned by Get/Update/Delete for an unknown id.
var ErrNotFound = errors.New("record not found")

// SessionRepository is CRUD over sessions keyed by a monotonic integer id.
type SessionRepository interface {
	GetAll(ctx context.Context) ([]*types.Session, error)
	GetByID(ctx context.Context, id int) (*types.Session, error)
	// Create assigns the id, stamps StartTime and resets ViewCount to 0.
	Create(ctx context.Context, s *types.Session) (*types.Session, error)
	// Update shallow-merges the non-nil patch fields.
	Update(ctx context.Context, id int, patch types.SessionPatch) (*types.Session, error)
	Delete(ctx context.Context, id int) error
}

// TabRepository is CRUD over tabs plus bulk operations keyed by session.
type TabRepository interface {
	GetAll(ctx context.Context) ([]*types.Tab, error)
	GetByID(ctx context.Context, id int) (*types.Tab, error)
	GetBySessionID(ctx context.Context, sessionID int) ([]*types.Tab, error)
	Create(ctx context.Context, t *types.Tab) (*types.Tab, error)
	// CreateMultiple creates count idle tabs, assigning proxies round-robin.
	CreateMultiple(ctx context.Context, sessionID, count int, proxies []model.ProxyRecord) ([]*types.Tab, error)
	Update(ctx context.Context, id int, patch types.TabPatch) (*types.Tab, error)
	// DeleteBySessionID removes every tab of the session; no match is not an error.
	DeleteBySessionID(ctx context.Context, sessionID int) error
}
