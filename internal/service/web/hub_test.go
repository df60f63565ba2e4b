package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"viewsim/internal/core/simulator"
	"viewsim/internal/shared/types"
)

func TestHub_BroadcastsStateAndNotifications(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.PublishState(simulator.State{
		Session:   &types.Session{ID: 3, ViewCount: 9},
		Tabs:      []*types.Tab{},
		IsRunning: true,
	})
	hub.Notify(simulator.LevelInfo, "hello")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, MessageStateUpdate, msg.Type)
	var st simulator.State
	require.NoError(t, json.Unmarshal(msg.Data, &st))
	require.True(t, st.IsRunning)
	require.Equal(t, 9, st.Session.ViewCount)

	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, MessageNotification, msg.Type)
	var n Notification
	require.NoError(t, json.Unmarshal(msg.Data, &n))
	require.Equal(t, Notification{Level: "info", Message: "hello"}, n)
}

func TestHub_ServeWsAfterRunStops(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	served := make(chan struct{}, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
		served <- struct{}{}
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	// A client connected before shutdown is dropped by Run.
	early, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer early.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	<-served

	cancel()
	<-stopped
	require.NoError(t, early.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = early.ReadMessage()
	require.Error(t, err)

	// A client arriving after shutdown is closed instead of blocking the handler.
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer late.Close()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("ServeWs blocked after the hub stopped")
	}
	require.NoError(t, late.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = late.ReadMessage()
	require.Error(t, err)
	require.Zero(t, hub.ClientCount())
}
