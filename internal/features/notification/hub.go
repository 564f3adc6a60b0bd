package notification

import (
	"encoding/json"
	"sync"

	"github.com/kienquocIT/mis-api-sub003/internal/features/engine"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Hub fans workflow events out to connected websocket clients. A slow client
// is dropped rather than allowed to stall the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	Logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan []byte),
		Logger:  logger,
	}
}

// PublishAdvance implements the engine's event publisher.
func (h *Hub) PublishAdvance(event engine.AdvanceEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.Logger.Error("failed to encode advance event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, send := range h.clients {
		select {
		case send <- payload:
		default:
			h.Logger.Warn("dropping slow websocket client")
			go h.remove(conn)
		}
	}
}

// Serve owns one client connection for its lifetime. Incoming messages are
// ignored; the stream is broadcast only.
func (h *Hub) Serve(conn *websocket.Conn) {
	send := make(chan []byte, 32)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	defer func() {
		h.remove(conn)
		conn.Close()
	}()

	go func() {
		for payload := range send {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if send, ok := h.clients[conn]; ok {
		close(send)
		delete(h.clients, conn)
	}
}
