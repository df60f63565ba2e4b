package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"viewsim/internal/core/simulator"
	"viewsim/internal/core/window"
	"viewsim/internal/shared/globalstate"
	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/settings"
	"viewsim/internal/shared/types"
	"viewsim/internal/store"
	manager "viewsim/proxypool"
	"viewsim/proxypool/model"
)

// SimulatorController is what the handlers need from the simulator.
type SimulatorController interface {
	Snapshot() simulator.State
	StartSession(ctx context.Context, cfg simulator.StartConfig) (*types.Session, error)
	StopSession(ctx context.Context) error
	OpenWindow(ctx context.Context, tabID int) (*types.Tab, error)
	ListSessions(ctx context.Context) ([]*types.Session, error)
	ListTabs(ctx context.Context, sessionID int) ([]*types.Tab, error)
}

// ProxyPool is the validated-proxy source exposed on /api/proxies.
type ProxyPool interface {
	GetValidatedProxies(ctx context.Context, desiredCount int) (*model.PoolResult, error)
}

type Handler struct {
	settingsManager *settings.SettingsManager
	controller      SimulatorController
	pool            ProxyPool
}

func NewHandler(settingsManager *settings.SettingsManager, controller SimulatorController, pool ProxyPool) *Handler {
	return &Handler{
		settingsManager: settingsManager,
		controller:      controller,
		pool:            pool,
	}
}

// StartRequest is the body of POST /api/session/start. ProxyList holds one
// address:port per line.
type StartRequest struct {
	VideoURL       string          `json:"videoUrl"`
	VideoType      types.VideoType `json:"videoType"`
	TabCount       int             `json:"tabCount"`
	ProxyList      string          `json:"proxyList"`
	UseAutoProxies bool            `json:"useAutoProxies"`
}

type parseRequest struct {
	Text string `json:"text"`
}

// HandleGetState 处理 GET /api/state 请求
func (h *Handler) HandleGetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

// HandleStartSession 处理 POST /api/session/start 请求
func (h *Handler) HandleStartSession(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	manual, err := manager.ParseManualList(req.ProxyList)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  err.Error(),
			"fields": map[string]string{"proxyList": err.Error()},
		})
		return
	}
	proxies := make([]model.ProxyRecord, 0, len(manual))
	for _, p := range manual {
		proxies = append(proxies, *p)
	}

	session, err := h.controller.StartSession(c.Request.Context(), simulator.StartConfig{
		VideoURL:       req.VideoURL,
		VideoType:      req.VideoType,
		TabCount:       req.TabCount,
		Proxies:        proxies,
		UseAutoProxies: req.UseAutoProxies,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// HandleStopSession 处理 POST /api/session/stop 请求
func (h *Handler) HandleStopSession(c *gin.Context) {
	if err := h.controller.StopSession(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

// HandleOpenWindow 处理 POST /api/tabs/:id/window 请求
func (h *Handler) HandleOpenWindow(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tab id"})
		return
	}
	tab, err := h.controller.OpenWindow(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}

func (h *Handler) HandleListSessions(c *gin.Context) {
	sessions, err := h.controller.ListSessions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// HandleListTabs 处理 GET /api/tabs?sessionId= 请求；不带 sessionId 时返回全部。
func (h *Handler) HandleListTabs(c *gin.Context) {
	sessionID := 0
	if raw := c.Query("sessionId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sessionId"})
			return
		}
		sessionID = id
	}
	tabs, err := h.controller.ListTabs(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tabs)
}

// HandleParseProxies 处理 POST /api/proxies/parse 请求
func (h *Handler) HandleParseProxies(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	proxies, err := manager.ParseManualList(req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if proxies == nil {
		proxies = []*model.ProxyRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"proxies": proxies, "count": len(proxies)})
}

// HandleGetValidatedProxies 处理 GET /api/proxies/validated?count=N 请求
func (h *Handler) HandleGetValidatedProxies(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "10"))
	if err != nil || count < 1 || count > manager.MaxDesiredCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("count must be an integer between 1 and %d", manager.MaxDesiredCount)})
		return
	}
	res, err := h.pool.GetValidatedProxies(c.Request.Context(), count)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleGetSettings 处理 GET /api/settings 请求
func (h *Handler) HandleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settingsManager.Get())
}

// HandleUpdateSettings 处理 POST /api/settings/:module 请求
func (h *Handler) HandleUpdateSettings(c *gin.Context) {
	moduleKey := c.Param("module")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read request body"})
		return
	}

	// 将更新请求委托给 SettingsManager
	if err := h.settingsManager.Update(moduleKey, body); err != nil {
		switch {
		case errors.Is(err, settings.ErrUnknownModule):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, settings.ErrInvalidJSON):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.WithComponent("WebServer").Error().Err(err).Str("module", moduleKey).Msg("Failed to update settings.")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated successfully"})
}

// HandleStatus 处理 GET /api/status 请求（公开）
func (h *Handler) HandleStatus(c *gin.Context) {
	st := h.controller.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":     globalstate.GlobalStatus.Get(),
		"since":      globalstate.GlobalStatus.Since().Round(time.Second).String(),
		"is_running": st.IsRunning,
	})
}

// writeError maps domain errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	var verr *simulator.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": verr.Fields})
	case errors.Is(err, simulator.ErrNoVideoURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, manager.ErrInvalidCount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, simulator.ErrSessionRunning), errors.Is(err, window.ErrWindowBlocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, manager.ErrNoProxiesAvailable), errors.Is(err, manager.ErrNoWorkingProxies):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.WithComponent("WebServer").Error().Err(err).Str("path", c.FullPath()).Msg("Request failed.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
