package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/metrics"
	"viewsim/internal/shared/settings"
	"viewsim/proxypool/model"
	"viewsim/proxypool/scraper"
	"viewsim/proxypool/validator"
)

var (
	ErrNoProxiesAvailable = errors.New("no proxies could be fetched from any source")
	ErrNoWorkingProxies   = errors.New("no working proxies found after validation")
	ErrInvalidCount       = errors.New("desired proxy count must be positive")
)

// MaxDesiredCount is the largest count accepted from outer surfaces.
const MaxDesiredCount = 1000

// Manager 是代理池模块的总控制器：抓取 -> 去重 -> 验证 -> 选取。
// 每次调用都产生一个独立的新池，调用之间不共享可变状态。
type Manager struct {
	scrapers  []scraper.Scraper
	validator *validator.Validator
	probe     validator.Probe

	mu           sync.RWMutex
	candidateCap int
}

// NewManager 创建代理池管理器。probe 同时用于接收热更新的超时/成功率设置。
func NewManager(probe validator.Probe, scrapers ...scraper.Scraper) *Manager {
	return &Manager{
		scrapers:     scrapers,
		validator:    validator.NewValidator(probe),
		probe:        probe,
		candidateCap: DefaultCandidateCap,
	}
}

// Sources returns the names of the configured scrapers in fetch order.
func (m *Manager) Sources() []string {
	names := make([]string, 0, len(m.scrapers))
	for _, s := range m.scrapers {
		names = append(names, s.Name())
	}
	return names
}

// FetchCandidates runs every scraper concurrently and merges the results in
// source order. A failing source contributes nothing and is only logged.
func (m *Manager) FetchCandidates(ctx context.Context) []*model.ProxyRecord {
	l := logger.WithComponent("ProxyPool/Manager")

	lists := make([][]*model.ProxyRecord, len(m.scrapers))
	var wg sync.WaitGroup
	for i, s := range m.scrapers {
		wg.Add(1)
		go func(i int, sc scraper.Scraper) {
			defer wg.Done()
			proxies, err := sc.Scrape(ctx)
			if err != nil {
				metrics.SourceFetches.WithLabelValues(sc.Name(), "failed").Inc()
				l.Warn().Err(err).Str("source", sc.Name()).Msg("Scraper failed.")
				return
			}
			metrics.SourceFetches.WithLabelValues(sc.Name(), "ok").Inc()
			lists[i] = proxies
		}(i, s)
	}
	wg.Wait()

	m.mu.RLock()
	limit := m.candidateCap
	m.mu.RUnlock()

	candidates := Merge(lists, limit)
	metrics.CandidatesFetched.Add(float64(len(candidates)))
	return candidates
}

// GetValidatedProxies fetches a fresh candidate pool, validates up to twice
// the desired count and returns at most desiredCount working proxies.
func (m *Manager) GetValidatedProxies(ctx context.Context, desiredCount int) (*model.PoolResult, error) {
	l := logger.WithComponent("ProxyPool/Manager")
	if desiredCount < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, desiredCount)
	}

	start := time.Now()
	candidates := m.FetchCandidates(ctx)
	if len(candidates) == 0 {
		return nil, ErrNoProxiesAvailable
	}

	// No more than the pool can ever yield.
	want := min(desiredCount, len(candidates))
	toValidate := candidates[:min(want*2, len(candidates))]

	validated := m.validator.Validate(ctx, toValidate)

	working := make([]*model.ProxyRecord, 0, want)
	for _, p := range validated {
		if p.Status != model.StatusWorking {
			continue
		}
		working = append(working, p)
		if len(working) == want {
			break
		}
	}

	if len(working) == 0 {
		return nil, ErrNoWorkingProxies
	}

	l.Info().
		Int("total_found", len(candidates)).
		Int("validated", len(validated)).
		Int("working", len(working)).
		Dur("elapsed", time.Since(start)).
		Msg("Proxy pool ready.")

	return &model.PoolResult{
		TotalFound:     len(candidates),
		ValidatedCount: len(validated),
		WorkingCount:   len(working),
		Proxies:        working,
	}, nil
}

// OnSettingsUpdate implements settings.ConfigurableModule for "proxypool".
func (m *Manager) OnSettingsUpdate(moduleKey string, newSettings interface{}) error {
	s, ok := newSettings.(*settings.ProxyPoolSettings)
	if !ok {
		return fmt.Errorf("unexpected settings type %T for module %s", newSettings, moduleKey)
	}

	m.mu.Lock()
	if s.CandidateCap > 0 {
		m.candidateCap = s.CandidateCap
	}
	m.mu.Unlock()

	switch p := m.probe.(type) {
	case *validator.ConnectProbe:
		if s.ProbeTimeoutMs > 0 {
			p.SetTimeout(time.Duration(s.ProbeTimeoutMs) * time.Millisecond)
		}
	case *validator.RandomProbe:
		if s.StubWorkRate > 0 && s.StubWorkRate <= 1 {
			p.SetWorkRate(s.StubWorkRate)
		}
	}

	logger.WithComponent("ProxyPool/Manager").Info().
		Int("candidate_cap", s.CandidateCap).
		Int("probe_timeout_ms", s.ProbeTimeoutMs).
		Msg("Proxy pool settings applied.")
	return nil
}
