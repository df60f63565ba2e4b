package window

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/types"
)

// RodOpener opens windows in a Chromium instance driven over CDP. The browser
// is launched, or attached to via ControlURL, on first use.
type RodOpener struct {
	cfg types.WindowConf

	mu      sync.Mutex
	browser *rod.Browser
}

func NewRodOpener(cfg types.WindowConf) *RodOpener {
	return &RodOpener{cfg: cfg}
}

func (o *RodOpener) connect() (*rod.Browser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.browser != nil {
		return o.browser, nil
	}

	controlURL := o.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(o.cfg.Headless)
		if o.cfg.BrowserBin != "" {
			l = l.Bin(o.cfg.BrowserBin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	logger.WithComponent("Window").Info().Str("control_url", controlURL).Msg("Browser connected.")
	o.browser = b
	return b, nil
}

// Open creates a new top-level window. Any failure to obtain a browser or a
// target is reported as ErrWindowBlocked.
func (o *RodOpener) Open(ctx context.Context, url, id string) (Handle, error) {
	b, err := o.connect()
	if err != nil {
		logger.WithComponent("Window").Warn().Err(err).Msg("No browser available.")
		return nil, fmt.Errorf("%w: %v", ErrWindowBlocked, err)
	}
	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: url, NewWindow: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWindowBlocked, err)
	}
	// The handle outlives the request that opened it.
	return &rodHandle{id: id, browser: b, page: page.Context(context.Background())}, nil
}

// Close shuts down the browser connection, if one was made.
func (o *RodOpener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.browser == nil {
		return nil
	}
	err := o.browser.Close()
	o.browser = nil
	return err
}

type rodHandle struct {
	id      string
	browser *rod.Browser
	page    *rod.Page
}

func (h *rodHandle) ID() string { return h.id }

// Closed reports true once the page target is gone from the browser. A
// browser that can no longer be queried counts as closed.
func (h *rodHandle) Closed() bool {
	pages, err := h.browser.Pages()
	if err != nil {
		return true
	}
	for _, p := range pages {
		if p.TargetID == h.page.TargetID {
			return false
		}
	}
	return true
}

func (h *rodHandle) Close() error {
	return h.page.Close()
}
