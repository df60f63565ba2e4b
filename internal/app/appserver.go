package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"viewsim/internal/core/simulator"
	"viewsim/internal/core/window"
	"viewsim/internal/service/web"
	"viewsim/internal/shared/globalstate"
	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/settings"
	"viewsim/internal/shared/types"
	"viewsim/internal/store"
	manager "viewsim/proxypool"
	"viewsim/proxypool/model"
)

// AppServer is the application's main struct.
type AppServer struct {
	cfg *types.Config

	settingsManager *settings.SettingsManager
	sessions        *store.MemorySessionStore
	tabs            *store.MemoryTabStore
	proxyPool       *manager.Manager
	opener          window.Opener
	watches         *window.Registry
	simulator       *simulator.Simulator
	hub             *web.Hub
	web             *web.Server

	cancelHub context.CancelFunc
	waitGroup sync.WaitGroup
	stopOnce  sync.Once
}

// New builds every component from cfg. settings.json is kept in configDir;
// an empty configDir keeps runtime settings in memory.
func New(cfg *types.Config, configDir string) (*AppServer, error) {
	settingsPath := ""
	if configDir != "" {
		settingsPath = filepath.Join(configDir, "settings.json")
	}
	sm, err := settings.NewSettingsManager(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings manager: %w", err)
	}

	latency := time.Duration(cfg.SimulatorConf.StoreLatencyMs) * time.Millisecond
	s := &AppServer{
		cfg:             cfg,
		settingsManager: sm,
		sessions:        store.NewMemorySessionStore(latency),
		tabs:            store.NewMemoryTabStore(latency),
		watches:         window.NewRegistry(),
		hub:             web.NewHub(),
	}

	if cfg.SimulatorConf.SeedFixtures {
		if err := store.Seed(s.sessions, s.tabs); err != nil {
			return nil, fmt.Errorf("failed to seed stores: %w", err)
		}
	}

	pool, err := newProxyPool(cfg.ProxyPoolConf)
	if err != nil {
		return nil, err
	}
	s.proxyPool = pool
	s.opener = newOpener(cfg.WindowConf)
	s.simulator = simulator.NewSimulator(s.sessions, s.tabs, s.proxyPool, s.opener, s.watches, s.hub)

	sm.Register("simulator", s.simulator)
	sm.Register("proxypool", s.proxyPool)
	sm.Apply()
	return s, nil
}

// Handler returns the HTTP surface, used by Run and by tests.
func (s *AppServer) Handler() *web.Handler {
	return web.NewHandler(s.settingsManager, s.simulator, s.proxyPool)
}

// Start launches the hub and the web server without blocking.
func (s *AppServer) Start() error {
	l := logger.WithComponent("App")
	l.Info().Strs("sources", s.proxyPool.Sources()).Str("window_backend", s.cfg.WindowConf.Backend).Msg("Starting viewsim...")

	hubCtx, cancel := context.WithCancel(context.Background())
	s.cancelHub = cancel
	s.waitGroup.Add(1)
	go func() {
		defer s.waitGroup.Done()
		s.hub.Run(hubCtx)
	}()

	router := web.NewRouter(s.cfg.LocalConf, s.Handler(), s.hub)
	srv, err := web.StartServer(&s.waitGroup, s.cfg.LocalConf, router)
	if err != nil {
		cancel()
		return err
	}
	s.web = srv
	globalstate.GlobalStatus.Set(globalstate.StatusReady)
	return nil
}

// Run starts the server and blocks until SIGINT or SIGTERM.
func (s *AppServer) Run() error {
	if err := s.Start(); err != nil {
		return err
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig
	logger.WithComponent("App").Info().Str("signal", received.String()).Msg("Shutdown signal received.")
	s.Stop()
	return nil
}

// Stop gracefully shuts down the server.
func (s *AppServer) Stop() {
	s.stopOnce.Do(func() {
		l := logger.WithComponent("App")
		globalstate.GlobalStatus.Set(globalstate.StatusStopping)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.simulator.Shutdown(ctx); err != nil {
			l.Warn().Err(err).Msg("Failed to stop the running session.")
		}
		if err := s.web.Shutdown(ctx); err != nil {
			l.Warn().Err(err).Msg("Web server shutdown error.")
		}
		if s.cancelHub != nil {
			s.cancelHub()
		}
		if c, ok := s.opener.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				l.Warn().Err(err).Msg("Failed to close browser.")
			}
		}
		s.waitGroup.Wait()
		l.Info().Msg("Server stopped.")
	})
}

// ValidatedProxies runs one pool acquisition outside of any session.
func (s *AppServer) ValidatedProxies(ctx context.Context, count int) (*model.PoolResult, error) {
	return s.proxyPool.GetValidatedProxies(ctx, count)
}
