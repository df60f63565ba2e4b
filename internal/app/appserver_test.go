package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"viewsim/internal/core/window"
	"viewsim/internal/service/web"
	"viewsim/internal/shared/types"
	"viewsim/proxypool/validator"
)

func TestNewProxyPool(t *testing.T) {
	cfg := types.DefaultConfig().ProxyPoolConf
	cfg.HTMLSources = []string{"https://example.com/free-proxies"}
	cfg.HTMLPresets = []string{"ip3366"}

	pool, err := newProxyPool(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{
		"api.proxyscrape.com",
		"raw.githubusercontent.com",
		"raw.githubusercontent.com",
		"example.com",
		"www.ip3366.net",
	}, pool.Sources())

	cfg.HTMLPresets = []string{"nope"}
	_, err = newProxyPool(cfg)
	require.Error(t, err)
}

func TestNewProbe(t *testing.T) {
	p, err := newProbe(types.ProxyPoolConf{Probe: "connect", ProbeTarget: "example.com:443"})
	require.NoError(t, err)
	require.IsType(t, &validator.ConnectProbe{}, p)

	p, err = newProbe(types.ProxyPoolConf{})
	require.NoError(t, err)
	require.IsType(t, &validator.RandomProbe{}, p)

	_, err = newProbe(types.ProxyPoolConf{Probe: "ping"})
	require.Error(t, err)
}

func TestNewOpener(t *testing.T) {
	require.IsType(t, window.DisabledOpener{}, newOpener(types.WindowConf{Backend: "none"}))
	require.IsType(t, &window.RodOpener{}, newOpener(types.WindowConf{Backend: "rod"}))
}

func TestNew_SeedsStoresAndServesState(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.WindowConf.Backend = "none"

	s, err := New(cfg, "")
	require.NoError(t, err)
	defer s.Stop()

	router := web.NewRouter(cfg.LocalConf, s.Handler(), web.NewHub())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"stopped"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"isRunning":false`)
}
