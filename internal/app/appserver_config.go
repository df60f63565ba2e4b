package app

import (
	"fmt"
	"strings"
	"time"

	"viewsim/internal/core/window"
	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/types"
	manager "viewsim/proxypool"
	"viewsim/proxypool/scraper"
	"viewsim/proxypool/validator"
)

const defaultFetchTimeout = 20 * time.Second

// newProxyPool builds the scrapers and the probe described by [proxypool].
func newProxyPool(cfg types.ProxyPoolConf) (*manager.Manager, error) {
	timeout := defaultFetchTimeout
	if cfg.FetchTimeoutSecond > 0 {
		timeout = time.Duration(cfg.FetchTimeoutSecond) * time.Second
	}

	var scrapers []scraper.Scraper
	for _, src := range cfg.Sources {
		if src = strings.TrimSpace(src); src != "" {
			scrapers = append(scrapers, scraper.NewTextListScraper(src, timeout))
		}
	}
	for _, src := range cfg.HTMLSources {
		if src = strings.TrimSpace(src); src != "" {
			scrapers = append(scrapers, scraper.NewHTMLTableScraper(src, cfg.HTMLRowSelector, timeout))
		}
	}
	for _, name := range cfg.HTMLPresets {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		s, err := scraper.NewPresetScraper(name, timeout)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, s)
	}

	probe, err := newProbe(cfg)
	if err != nil {
		return nil, err
	}
	return manager.NewManager(probe, scrapers...), nil
}

func newProbe(cfg types.ProxyPoolConf) (validator.Probe, error) {
	switch strings.ToLower(cfg.Probe) {
	case "", "random":
		return validator.NewRandomProbe(0.7, time.Now().UnixNano()), nil
	case "connect":
		return validator.NewConnectProbe(cfg.ProbeTarget, 5*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown probe %q (want random or connect)", cfg.Probe)
	}
}

func newOpener(cfg types.WindowConf) window.Opener {
	switch strings.ToLower(cfg.Backend) {
	case "rod", "":
		return window.NewRodOpener(cfg)
	default:
		logger.WithComponent("App").Warn().Str("backend", cfg.Backend).Msg("Window opening is disabled.")
		return window.DisabledOpener{}
	}
}
