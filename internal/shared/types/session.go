package types

import (
	"time"

	"viewsim/proxypool/model"
)

type VideoType string

const (
	VideoTypeVideo VideoType = "video"
	VideoTypeShort VideoType = "short"
)

type SessionStatus string

const (
	SessionRunning SessionStatus = "running"
	SessionStopped SessionStatus = "stopped"
)

type TabStatus string

const (
	TabIdle    TabStatus = "idle"
	TabRunning TabStatus = "running"
	TabLoading TabStatus = "loading"
	TabError   TabStatus = "error"
)

// Session 是一次针对单个视频 URL、跨 N 个 tab 的运行。
type Session struct {
	ID             int                 `json:"id"`
	VideoURL       string              `json:"videoUrl"`
	VideoType      VideoType           `json:"videoType"`
	TabCount       int                 `json:"tabCount"`
	Proxies        []model.ProxyRecord `json:"proxies"`
	UseAutoProxies bool                `json:"useAutoProxies"`
	Status         SessionStatus       `json:"status"`
	StartTime      time.Time           `json:"startTime"`
	ViewCount      int                 `json:"viewCount"`
}

// Clone returns a copy that shares no slices with s.
func (s *Session) Clone() *Session {
	c := *s
	c.Proxies = make([]model.ProxyRecord, len(s.Proxies))
	for i := range s.Proxies {
		c.Proxies[i] = *s.Proxies[i].Clone()
	}
	return &c
}

// SessionPatch carries the fields of a shallow-merge update. Nil fields are left untouched.
type SessionPatch struct {
	Status    *SessionStatus
	ViewCount *int
	VideoURL  *string
}

// Tab 是一个模拟的观看单元，可能对应一个真实打开的浏览器窗口。
type Tab struct {
	ID           int       `json:"id"`
	SessionID    int       `json:"sessionId"`
	ProxyUsed    *string   `json:"proxyUsed"`
	Status       TabStatus `json:"status"`
	ViewDuration int       `json:"viewDuration"` // seconds
	Errors       []string  `json:"errors"`
	WindowID     string    `json:"windowId,omitempty"`
}

// Clone returns a copy that shares no slices or pointers with t.
func (t *Tab) Clone() *Tab {
	c := *t
	if t.ProxyUsed != nil {
		p := *t.ProxyUsed
		c.ProxyUsed = &p
	}
	c.Errors = append([]string{}, t.Errors...)
	return &c
}

// TabPatch carries the fields of a shallow-merge update. Nil fields are left untouched.
type TabPatch struct {
	Status       *TabStatus
	ViewDuration *int
	Errors       []string // replaces the list when non-nil
	WindowID     *string
}
