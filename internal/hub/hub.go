package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"orgconsole-backend/internal/models"
)

// Hub fans new notifications out to connected admin consoles.
type Hub struct {
	consoles map[string]*websocket.Conn
	mu       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		consoles: make(map[string]*websocket.Conn),
	}
}

func (h *Hub) Add(connID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consoles[connID] = conn
	log.Printf("Console %s connected. Total consoles: %d", connID, len(h.consoles))
}

func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.consoles[connID]; ok {
		delete(h.consoles, connID)
		log.Printf("Console %s disconnected. Total consoles: %d", connID, len(h.consoles))
	}
}

// BroadcastNotification pushes a notification to every connected
// console. Write failures are logged and skipped; the row in the
// store is the source of truth.
func (h *Hub) BroadcastNotification(n models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(map[string]any{
		"event":        "notification_created",
		"notification": n,
	})
	if err != nil {
		log.Printf("WARN Failed to encode notification broadcast: %v", err)
		return
	}

	for connID, conn := range h.consoles {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("WARN Broadcast to console %s failed: %v", connID, err)
		}
	}
}
