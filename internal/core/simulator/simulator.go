package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"viewsim/internal/core/window"
	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/metrics"
	"viewsim/internal/shared/settings"
	"viewsim/internal/shared/types"
	"viewsim/internal/store"
	"viewsim/proxypool/model"
)

// ProxyPool supplies validated proxies for auto-proxy sessions.
type ProxyPool interface {
	GetValidatedProxies(ctx context.Context, desiredCount int) (*model.PoolResult, error)
}

// Simulator drives one session at a time: it owns the observable state and is
// its only mutator.
type Simulator struct {
	sessions  store.SessionRepository
	tabs      store.TabRepository
	pool      ProxyPool
	opener    window.Opener
	watches   *window.Registry
	publisher Publisher

	opMu sync.Mutex // serialises StartSession and StopSession

	mu         sync.RWMutex
	state      State
	cancelTick context.CancelFunc
	tickDone   chan struct{}

	cfgMu sync.RWMutex
	cfg   settings.SimulatorSettings

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewSimulator(sessions store.SessionRepository, tabs store.TabRepository, pool ProxyPool,
	opener window.Opener, watches *window.Registry, publisher Publisher) *Simulator {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if watches == nil {
		watches = window.NewRegistry()
	}
	return &Simulator{
		sessions:  sessions,
		tabs:      tabs,
		pool:      pool,
		opener:    opener,
		watches:   watches,
		publisher: publisher,
		state:     State{Tabs: []*types.Tab{}},
		cfg:       *settings.DefaultSimulatorSettings(),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the random source used for view steps.
func (s *Simulator) SetRand(r *rand.Rand) {
	s.rndMu.Lock()
	s.rnd = r
	s.rndMu.Unlock()
}

// Snapshot returns a deep copy of the observable state.
func (s *Simulator) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Simulator) ListSessions(ctx context.Context) ([]*types.Session, error) {
	return s.sessions.GetAll(ctx)
}

// ListTabs returns every tab, or only those of sessionID when it is positive.
func (s *Simulator) ListTabs(ctx context.Context, sessionID int) ([]*types.Tab, error) {
	if sessionID > 0 {
		return s.tabs.GetBySessionID(ctx, sessionID)
	}
	return s.tabs.GetAll(ctx)
}

// StartSession validates cfg, acquires proxies when requested, creates the
// session with its tabs and starts the tick loop.
func (s *Simulator) StartSession(ctx context.Context, cfg StartConfig) (*types.Session, error) {
	l := logger.WithComponent("Simulator")
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.Snapshot().IsRunning {
		return nil, ErrSessionRunning
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		metrics.SessionStartFailures.WithLabelValues("validation").Inc()
		s.notify(LevelError, err.Error())
		return nil, err
	}

	s.update(func(st *State) {
		st.Error = ""
		st.IsLoading = true
	})

	proxies := dedupProxies(cfg.Proxies)
	if cfg.UseAutoProxies {
		res, err := s.pool.GetValidatedProxies(ctx, cfg.TabCount*2)
		if err != nil {
			metrics.SessionStartFailures.WithLabelValues("proxypool").Inc()
			return nil, s.failStart(fmt.Errorf("acquire proxies: %w", err))
		}
		for _, p := range res.Proxies {
			proxies = append(proxies, *p)
		}
		proxies = dedupProxies(proxies)
		s.notify(LevelInfo, fmt.Sprintf("Found %d working proxies out of %d candidates.", res.WorkingCount, res.TotalFound))
	}

	session, err := s.sessions.Create(ctx, &types.Session{
		VideoURL:       cfg.VideoURL,
		VideoType:      cfg.VideoType,
		TabCount:       cfg.TabCount,
		Proxies:        proxies,
		UseAutoProxies: cfg.UseAutoProxies,
		Status:         types.SessionRunning,
	})
	if err != nil {
		metrics.SessionStartFailures.WithLabelValues("store").Inc()
		return nil, s.failStart(fmt.Errorf("create session: %w", err))
	}

	tabs, err := s.createRunningTabs(ctx, session.ID, cfg.TabCount, proxies)
	if err != nil {
		metrics.SessionStartFailures.WithLabelValues("store").Inc()
		cleanup := context.WithoutCancel(ctx)
		_ = s.tabs.DeleteBySessionID(cleanup, session.ID)
		_ = s.sessions.Delete(cleanup, session.ID)
		return nil, s.failStart(fmt.Errorf("create tabs: %w", err))
	}

	tickCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.state = State{Session: session, Tabs: tabs, IsRunning: true}
	s.cancelTick = cancel
	s.tickDone = done
	s.mu.Unlock()
	go s.runTicks(tickCtx, session.ID, done)

	metrics.SessionsStarted.Inc()
	l.Info().Int("session_id", session.ID).Int("tabs", len(tabs)).Int("proxies", len(proxies)).Msg("Session started.")
	s.publish()
	s.notify(LevelSuccess, fmt.Sprintf("Session started with %d tabs.", len(tabs)))
	return session.Clone(), nil
}

func (s *Simulator) createRunningTabs(ctx context.Context, sessionID, count int, proxies []model.ProxyRecord) ([]*types.Tab, error) {
	created, err := s.tabs.CreateMultiple(ctx, sessionID, count, proxies)
	if err != nil {
		return nil, err
	}
	running := types.TabRunning
	out := make([]*types.Tab, len(created))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range created {
		g.Go(func() error {
			updated, err := s.tabs.Update(gctx, t.ID, types.TabPatch{Status: &running})
			if err != nil {
				return err
			}
			out[i] = updated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Simulator) failStart(err error) error {
	logger.WithComponent("Simulator").Error().Err(err).Msg("Failed to start session.")
	s.update(func(st *State) {
		st.IsLoading = false
		st.Error = "Failed to start session: " + err.Error()
	})
	s.notify(LevelError, "Failed to start session: "+err.Error())
	return err
}

// StopSession cancels the tick loop, waits for it to exit and marks the
// session stopped and its tabs idle. Stopping with no running session is a
// no-op.
func (s *Simulator) StopSession(ctx context.Context) error {
	l := logger.WithComponent("Simulator")
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if !s.state.IsRunning || s.state.Session == nil {
		s.mu.Unlock()
		return nil
	}
	sessionID := s.state.Session.ID
	cancel, done := s.cancelTick, s.tickDone
	s.cancelTick, s.tickDone = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	stopped := types.SessionStopped
	session, err := s.sessions.Update(ctx, sessionID, types.SessionPatch{Status: &stopped})
	if err != nil {
		s.update(func(st *State) { st.Error = "Failed to stop session" })
		s.notify(LevelError, "Failed to stop session: "+err.Error())
		return fmt.Errorf("stop session %d: %w", sessionID, err)
	}

	tabs, err := s.tabs.GetBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load tabs of session %d: %w", sessionID, err)
	}
	idle := types.TabIdle
	noWindow := ""
	updated := make([]*types.Tab, len(tabs))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tabs {
		s.watches.Cancel(t.ID)
		g.Go(func() error {
			u, err := s.tabs.Update(gctx, t.ID, types.TabPatch{Status: &idle, WindowID: &noWindow})
			if err != nil {
				return err
			}
			updated[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.update(func(st *State) { st.Error = "Failed to stop session" })
		return fmt.Errorf("reset tabs of session %d: %w", sessionID, err)
	}

	s.update(func(st *State) {
		st.Session = session
		st.Tabs = updated
		st.IsRunning = false
		st.Error = ""
	})
	l.Info().Int("session_id", sessionID).Int("views", session.ViewCount).Msg("Session stopped.")
	s.notify(LevelInfo, "Session stopped.")
	return nil
}

// OpenWindow opens the session video for tabID in an external window and
// watches it until the user closes it. On error the tab is left unchanged.
func (s *Simulator) OpenWindow(ctx context.Context, tabID int) (*types.Tab, error) {
	l := logger.WithComponent("Simulator")
	tab, err := s.tabs.GetByID(ctx, tabID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetByID(ctx, tab.SessionID)
	if err != nil {
		return nil, err
	}
	if session.VideoURL == "" {
		s.notify(LevelError, "Please enter a video URL first.")
		return nil, ErrNoVideoURL
	}

	windowID := uuid.NewString()
	handle, err := s.opener.Open(ctx, session.VideoURL, windowID)
	if err != nil {
		l.Warn().Err(err).Int("tab_id", tabID).Msg("Window open failed.")
		if errors.Is(err, window.ErrWindowBlocked) {
			s.notify(LevelError, "Window was blocked. Please allow popups and try again.")
		} else {
			s.notify(LevelError, "Failed to open window: "+err.Error())
		}
		return nil, err
	}

	running := types.TabRunning
	updated, err := s.tabs.Update(ctx, tabID, types.TabPatch{Status: &running, WindowID: &windowID})
	if err != nil {
		_ = handle.Close()
		return nil, err
	}
	s.watches.Watch(tabID, handle, s.watchInterval(), s.onWindowClosed)

	s.replaceTab(updated)
	l.Info().Int("tab_id", tabID).Str("window_id", windowID).Msg("Window opened.")
	s.notify(LevelSuccess, fmt.Sprintf("Opened window for tab %d.", tabID))
	return updated, nil
}

func (s *Simulator) onWindowClosed(tabID int) {
	idle := types.TabIdle
	noWindow := ""
	updated, err := s.tabs.Update(context.Background(), tabID, types.TabPatch{Status: &idle, WindowID: &noWindow})
	if err != nil {
		logger.WithComponent("Simulator").Warn().Err(err).Int("tab_id", tabID).Msg("Failed to reset closed tab.")
		return
	}
	s.replaceTab(updated)
	s.notify(LevelInfo, fmt.Sprintf("Window for tab %d was closed.", tabID))
}

// OnSettingsUpdate implements settings.ConfigurableModule for "simulator".
func (s *Simulator) OnSettingsUpdate(moduleKey string, newSettings interface{}) error {
	cfg, ok := newSettings.(*settings.SimulatorSettings)
	if !ok {
		return fmt.Errorf("unexpected settings type %T for module %s", newSettings, moduleKey)
	}
	if cfg.MinViewStep > cfg.MaxViewStep {
		return fmt.Errorf("min_view_step %d exceeds max_view_step %d", cfg.MinViewStep, cfg.MaxViewStep)
	}
	s.cfgMu.Lock()
	if cfg.TickIntervalMs > 0 {
		s.cfg.TickIntervalMs = cfg.TickIntervalMs
	}
	if cfg.WatchIntervalMs > 0 {
		s.cfg.WatchIntervalMs = cfg.WatchIntervalMs
	}
	if cfg.MinViewStep >= 0 && cfg.MaxViewStep > 0 {
		s.cfg.MinViewStep = cfg.MinViewStep
		s.cfg.MaxViewStep = cfg.MaxViewStep
	}
	s.cfgMu.Unlock()
	logger.WithComponent("Simulator").Info().Int("tick_interval_ms", cfg.TickIntervalMs).Msg("Simulator settings applied.")
	return nil
}

// Shutdown stops the running session, if any, and drops every window watch.
func (s *Simulator) Shutdown(ctx context.Context) error {
	err := s.StopSession(ctx)
	s.watches.CancelAll()
	return err
}

func (s *Simulator) tickInterval() time.Duration {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return time.Duration(s.cfg.TickIntervalMs) * time.Millisecond
}

func (s *Simulator) watchInterval() time.Duration {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return time.Duration(s.cfg.WatchIntervalMs) * time.Millisecond
}

// viewStep returns a uniform integer in [MinViewStep, MaxViewStep].
func (s *Simulator) viewStep() int {
	s.cfgMu.RLock()
	lo, hi := s.cfg.MinViewStep, s.cfg.MaxViewStep
	s.cfgMu.RUnlock()
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return lo + s.rnd.Intn(hi-lo+1)
}

func (s *Simulator) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.publish()
}

// replaceTab swaps in t if it belongs to the displayed session.
func (s *Simulator) replaceTab(t *types.Tab) {
	s.update(func(st *State) {
		for i, cur := range st.Tabs {
			if cur.ID == t.ID {
				st.Tabs[i] = t
				return
			}
		}
	})
}

func (s *Simulator) publish() {
	s.mu.RLock()
	snap := s.state.clone()
	p := s.publisher
	s.mu.RUnlock()
	p.PublishState(snap)
}

func (s *Simulator) notify(level, msg string) {
	s.mu.RLock()
	p := s.publisher
	s.mu.RUnlock()
	p.Notify(level, msg)
}

// dedupProxies drops repeated identities, keeping first occurrences in order.
func dedupProxies(in []model.ProxyRecord) []model.ProxyRecord {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.ProxyRecord, 0, len(in))
	for _, p := range in {
		if _, ok := seen[p.Key()]; ok {
			continue
		}
		seen[p.Key()] = struct{}{}
		out = append(out, p)
	}
	return out
}
