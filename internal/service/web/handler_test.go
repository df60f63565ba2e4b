package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"viewsim/internal/core/simulator"
	"viewsim/internal/core/window"
	"viewsim/internal/shared/settings"
	"viewsim/internal/shared/types"
	"viewsim/internal/store"
	manager "viewsim/proxypool"
	"viewsim/proxypool/model"
)

type fakeController struct {
	state     simulator.State
	startCfg  *simulator.StartConfig
	startErr  error
	stopped   bool
	openErr   error
	tabsQuery int
}

func (f *fakeController) Snapshot() simulator.State { return f.state }

func (f *fakeController) StartSession(_ context.Context, cfg simulator.StartConfig) (*types.Session, error) {
	f.startCfg = &cfg
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &types.Session{ID: 1, VideoURL: cfg.VideoURL, TabCount: cfg.TabCount, Status: types.SessionRunning}, nil
}

func (f *fakeController) StopSession(context.Context) error {
	f.stopped = true
	return nil
}

func (f *fakeController) OpenWindow(_ context.Context, tabID int) (*types.Tab, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &types.Tab{ID: tabID, Status: types.TabRunning, WindowID: "w"}, nil
}

func (f *fakeController) ListSessions(context.Context) ([]*types.Session, error) {
	return []*types.Session{{ID: 1}, {ID: 2}}, nil
}

func (f *fakeController) ListTabs(_ context.Context, sessionID int) ([]*types.Tab, error) {
	f.tabsQuery = sessionID
	return []*types.Tab{{ID: 1, SessionID: sessionID}}, nil
}

type fakePool struct {
	err error
	n   int
}

func (p *fakePool) GetValidatedProxies(_ context.Context, n int) (*model.PoolResult, error) {
	p.n = n
	if p.err != nil {
		return nil, p.err
	}
	return &model.PoolResult{TotalFound: 10, ValidatedCount: 2 * n, WorkingCount: 1,
		Proxies: []*model.ProxyRecord{{Address: "9.9.9.9", Port: 80, Status: model.StatusWorking}}}, nil
}

func newTestRouter(t *testing.T, local types.LocalConf) (http.Handler, *fakeController, *fakePool) {
	t.Helper()
	sm, err := settings.NewSettingsManager("")
	require.NoError(t, err)
	ctrl := &fakeController{state: simulator.State{Tabs: []*types.Tab{}}}
	pool := &fakePool{}
	return NewRouter(local, NewHandler(sm, ctrl, pool), NewHub()), ctrl, pool
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStartSession_ParsesProxyList(t *testing.T) {
	h, ctrl, _ := newTestRouter(t, types.LocalConf{})

	rec := do(t, h, http.MethodPost, "/api/session/start",
		`{"videoUrl":"https://youtu.be/abc","tabCount":3,"proxyList":"1.1.1.1:8080\n2.2.2.2:3128\n1.1.1.1:8080"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, ctrl.startCfg)
	require.Equal(t, 3, ctrl.startCfg.TabCount)
	require.Len(t, ctrl.startCfg.Proxies, 2)
	require.Equal(t, "2.2.2.2:3128", ctrl.startCfg.Proxies[1].Key())
}

func TestStartSession_MalformedProxyList(t *testing.T) {
	h, ctrl, _ := newTestRouter(t, types.LocalConf{})

	rec := do(t, h, http.MethodPost, "/api/session/start",
		`{"videoUrl":"https://youtu.be/abc","tabCount":3,"proxyList":"not a proxy"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, ctrl.startCfg)
	require.Contains(t, rec.Body.String(), "proxyList")
}

func TestStartSession_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&simulator.ValidationError{Fields: map[string]string{"tabCount": "must be between 1 and 20"}}, http.StatusBadRequest},
		{simulator.ErrSessionRunning, http.StatusConflict},
		{manager.ErrNoWorkingProxies, http.StatusBadGateway},
		{manager.ErrNoProxiesAvailable, http.StatusBadGateway},
	}
	for _, tc := range cases {
		h, ctrl, _ := newTestRouter(t, types.LocalConf{})
		ctrl.startErr = tc.err
		rec := do(t, h, http.MethodPost, "/api/session/start", `{"videoUrl":"https://youtu.be/abc","tabCount":1}`)
		require.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestOpenWindow_ErrorMapping(t *testing.T) {
	h, ctrl, _ := newTestRouter(t, types.LocalConf{})

	rec := do(t, h, http.MethodPost, "/api/tabs/4/window", "")
	require.Equal(t, http.StatusOK, rec.Code)

	ctrl.openErr = window.ErrWindowBlocked
	require.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/tabs/4/window", "").Code)
	ctrl.openErr = simulator.ErrNoVideoURL
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/tabs/4/window", "").Code)
	ctrl.openErr = store.ErrNotFound
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/tabs/4/window", "").Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/tabs/abc/window", "").Code)
}

func TestListTabs_SessionFilter(t *testing.T) {
	h, ctrl, _ := newTestRouter(t, types.LocalConf{})

	rec := do(t, h, http.MethodGet, "/api/tabs?sessionId=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 7, ctrl.tabsQuery)

	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/tabs?sessionId=x", "").Code)
}

func TestValidatedProxies(t *testing.T) {
	h, _, pool := newTestRouter(t, types.LocalConf{})

	rec := do(t, h, http.MethodGet, "/api/proxies/validated?count=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, pool.n)

	var res model.PoolResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 1, res.WorkingCount)

	pool.n = 0
	for _, q := range []string{"0", "abc", "1001", "9223372036854775807", "4611686018427387905"} {
		require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/proxies/validated?count="+q, "").Code, q)
	}
	require.Zero(t, pool.n)
}

func TestParseProxies(t *testing.T) {
	h, _, _ := newTestRouter(t, types.LocalConf{})

	rec := do(t, h, http.MethodPost, "/api/proxies/parse", `{"text":"1.1.1.1:80\n\n2.2.2.2:81"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"count":2`)
}

func TestSettingsEndpoints(t *testing.T) {
	h, _, _ := newTestRouter(t, types.LocalConf{})

	rec := do(t, h, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "tick_interval_ms")

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/settings/simulator", `{"tick_interval_ms":500}`).Code)
	require.Contains(t, do(t, h, http.MethodGet, "/api/settings", "").Body.String(), `"tick_interval_ms":500`)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/settings/nope", `{}`).Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/settings/simulator", `{`).Code)
}

func TestBasicAuth(t *testing.T) {
	h, ctrl, _ := newTestRouter(t, types.LocalConf{WebUser: "admin", WebPassword: "secret"})

	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/session/stop", "").Code)
	require.False(t, ctrl.stopped)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/status", "").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/session/stop", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ctrl.stopped)
}

func TestIndexPage(t *testing.T) {
	h, _, _ := newTestRouter(t, types.LocalConf{})
	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<title>viewsim</title>")
}
