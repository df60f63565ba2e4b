package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/types"
)

//go:embed all:static
var staticFiles embed.FS

// NewRouter builds the gin engine. When both web_user and web_password are
// set, everything except /ws, /api/status and /metrics requires basic auth.
func NewRouter(cfg types.LocalConf, handler *Handler, hub *Hub) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// --- 公开端点 ---
	r.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, c.Writer, c.Request)
	})
	r.GET("/api/status", handler.HandleStatus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// --- 认证保护的 API ---
	protected := r.Group("/")
	if cfg.WebUser != "" && cfg.WebPassword != "" {
		protected.Use(gin.BasicAuth(gin.Accounts{cfg.WebUser: cfg.WebPassword}))
	}

	api := protected.Group("/api")
	api.GET("/state", handler.HandleGetState)
	api.POST("/session/start", handler.HandleStartSession)
	api.POST("/session/stop", handler.HandleStopSession)
	api.POST("/tabs/:id/window", handler.HandleOpenWindow)
	api.GET("/sessions", handler.HandleListSessions)
	api.GET("/tabs", handler.HandleListTabs)
	api.POST("/proxies/parse", handler.HandleParseProxies)
	api.GET("/proxies/validated", handler.HandleGetValidatedProxies)
	api.GET("/settings", handler.HandleGetSettings)
	api.POST("/settings/:module", handler.HandleUpdateSettings)

	// --- 静态文件和主页 ---
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("static assets: %v", err))
	}
	protected.StaticFS("/static", http.FS(staticFS))
	protected.GET("/", func(c *gin.Context) {
		index, err := staticFiles.ReadFile("static/index.html")
		if err != nil {
			c.String(http.StatusInternalServerError, "Could not load index.html")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	return r
}

func requestLogger() gin.HandlerFunc {
	l := logger.WithComponent("WebServer")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request served.")
	}
}

// Server owns the HTTP listener.
type Server struct {
	srv *http.Server
}

// StartServer listens on web_port and serves the router in the background.
// A web_port of 0 disables the web UI and returns nil.
func StartServer(wg *sync.WaitGroup, cfg types.LocalConf, router http.Handler) (*Server, error) {
	l := logger.WithComponent("WebServer")
	if cfg.WebPort <= 0 {
		l.Info().Msg("Web UI is disabled (web_port is 0 or not set).")
		return nil, nil
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.WebPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start Web UI on %s: %w", addr, err)
	}
	l.Info().Msgf("SUCCESS: Web UI is listening on http://%s", addr)

	s := &Server{srv: &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error().Err(err).Msg("Web server error.")
		}
		l.Info().Msg("Web server stopped.")
	}()
	return s, nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
