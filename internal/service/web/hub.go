// FILE: internal/service/web/hub.go
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"viewsim/internal/core/simulator"
	"viewsim/internal/shared/logger"
)

const (
	MessageStateUpdate  = "state_update"
	MessageNotification = "notification"
)

// WebSocketMessage 定义了 WebSocket 消息的通用格式
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Notification is the payload of a "notification" message.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Hub maintains the set of active clients and broadcasts messages to the
// clients. It implements simulator.Publisher.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{} // closed when Run stops
	stopOnce   sync.Once
	mu         sync.Mutex

	lastState []byte // replayed to newly registered clients
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		clients:    make(map[*websocket.Conn]bool),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	l := logger.WithComponent("WebHub")
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			if h.lastState != nil {
				_ = conn.WriteMessage(websocket.TextMessage, h.lastState)
			}
			h.mu.Unlock()
			l.Info().Str("remote_addr", conn.RemoteAddr().String()).Msg("WebSocket client registered.")
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				l.Info().Str("remote_addr", conn.RemoteAddr().String()).Msg("WebSocket client unregistered.")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					// The read pump unregisters disconnected clients.
					l.Warn().Err(err).Str("remote_addr", conn.RemoteAddr().String()).Msg("Error writing to websocket client.")
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishState broadcasts a full state snapshot.
func (h *Hub) PublishState(st simulator.State) {
	msg, err := json.Marshal(WebSocketMessage{Type: MessageStateUpdate, Data: st})
	if err != nil {
		logger.WithComponent("WebHub").Error().Err(err).Msg("Failed to marshal state update.")
		return
	}
	h.mu.Lock()
	h.lastState = msg
	h.mu.Unlock()
	h.send(msg)
}

// Notify broadcasts a user-facing notification.
func (h *Hub) Notify(level, message string) {
	msg, err := json.Marshal(WebSocketMessage{Type: MessageNotification, Data: Notification{Level: level, Message: message}})
	if err != nil {
		return
	}
	h.send(msg)
}

func (h *Hub) send(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		logger.WithComponent("WebHub").Warn().Msg("Broadcast channel is full, dropping message.")
	}
}

// ClientCount returns the number of connected websocket clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // Allow all origins
}

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("WebHub").Error().Err(err).Msg("Failed to upgrade websocket")
		return
	}
	select {
	case hub.register <- conn:
	case <-hub.done:
		conn.Close()
		return
	}

	// This is a read pump. It's needed to detect when a client closes the connection.
	go func() {
		defer func() {
			select {
			case hub.unregister <- conn:
			case <-hub.done:
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.WithComponent("WebHub").Warn().Err(err).Msg("Unexpected websocket close error")
				}
				break
			}
		}
	}()
}
