package window

import (
	"context"
	"errors"
)

// ErrWindowBlocked means the host refused to open the window. The user has to
// allow it (popups, browser availability) and retry.
var ErrWindowBlocked = errors.New("window was blocked")

// Opener opens a top-level browser context pointed at a URL.
type Opener interface {
	// Open opens url in a new window identified by id.
	Open(ctx context.Context, url, id string) (Handle, error)
}

// Handle is an opaque reference to an opened window.
type Handle interface {
	ID() string
	// Closed reports whether the user has closed the window.
	Closed() bool
	Close() error
}

// DisabledOpener refuses every request.
type DisabledOpener struct{}

func (DisabledOpener) Open(context.Context, string, string) (Handle, error) {
	return nil, ErrWindowBlocked
}
