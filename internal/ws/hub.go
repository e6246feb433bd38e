package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"docket-service/internal/models"
	"docket-service/internal/observability"
)

// Hub maintains active websocket rooms, one per group, and pushes activity
// events to connected members.
type Hub struct {
	rooms  map[string]map[*websocket.Conn]ConnInfo
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*websocket.Conn]ConnInfo),
		logger: logger,
	}
}

// AddClient registers a websocket connection to a group room.
func (h *Hub) AddClient(groupID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[groupID]; !ok {
		h.rooms[groupID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[groupID][conn] = info
	observability.IncWSActive()
}

// RemoveClient removes a group websocket connection.
func (h *Hub) RemoveClient(groupID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[groupID]; ok {
		if _, exists := conns[conn]; exists {
			delete(conns, conn)
			observability.DecWSActive()
		}
		if len(conns) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

// BroadcastActivity pushes an activity entry to every connection in the
// group's room. Dead connections are dropped on write failure.
func (h *Hub) BroadcastActivity(groupID string, entry models.ActivityLog) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[groupID]))
	for conn := range h.rooms[groupID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	event := models.GroupActivityEvent{Type: "activity", Activity: &entry}
	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("websocket write failed",
				zap.String("group_id", groupID), zap.Error(err))
			conn.Close()
			h.RemoveClient(groupID, conn)
		}
	}
}

// RoomSize reports the number of live connections for a group.
func (h *Hub) RoomSize(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[groupID])
}
