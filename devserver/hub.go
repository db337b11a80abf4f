package devserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/matchpoint-app/matchpoint-go/models"
	"github.com/matchpoint-app/matchpoint-go/realtime"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type member struct {
	conn *websocket.Conn
	user models.UserRef

	// writeMu serializes writes; broadcasts can originate from any
	// connection's read loop or from a REST handler
	writeMu sync.Mutex
}

func (m *member) write(v interface{}) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.conn.WriteJSON(v)
}

// Hub tracks connections per session room and broadcasts envelopes to them
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]*member
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]*member)}
}

// ServeWS upgrades the request and runs the connection until it closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}
	go h.run(conn)
}

func (h *Hub) run(conn *websocket.Conn) {
	var sessionID string
	defer func() {
		if sessionID != "" {
			h.leave(sessionID, conn)
		}
		conn.Close()
	}()

	for {
		var env realtime.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}

		switch env.Event {
		case realtime.EventSessionJoin:
			var payload realtime.JoinPayload
			if err := unmarshalData(env.Data, &payload); err != nil {
				continue
			}
			sessionID = payload.SessionID
			h.join(sessionID, conn, payload.User)
		case realtime.EventTyping, realtime.EventStoppedTyping:
			if sessionID != "" {
				h.BroadcastToRoom(sessionID, env.Event, rawData(env.Data))
			}
		default:
			// clients only emit join and typing; anything else is dropped
		}
	}
}

func (h *Hub) join(sessionID string, conn *websocket.Conn, user models.UserRef) {
	h.mu.Lock()
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*websocket.Conn]*member)
		h.rooms[sessionID] = room
	}
	room[conn] = &member{conn: conn, user: user}
	h.mu.Unlock()
	zap.S().Debugw("client joined session room", "sessionId", sessionID, "userId", user.ID)
	h.broadcastPresence(sessionID)
}

func (h *Hub) leave(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	if room, ok := h.rooms[sessionID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
	h.mu.Unlock()
	h.broadcastPresence(sessionID)
}

// BroadcastToRoom sends one envelope to every connection in a session room
func (h *Hub) BroadcastToRoom(sessionID, event string, data interface{}) {
	h.mu.Lock()
	members := make([]*member, 0)
	for _, m := range h.rooms[sessionID] {
		members = append(members, m)
	}
	h.mu.Unlock()

	for _, m := range members {
		err := m.write(map[string]interface{}{
			"event": event,
			"data":  data,
		})
		if err != nil {
			zap.S().Debugw("failed to write to room member", "sessionId", sessionID, "error", err)
			h.leave(sessionID, m.conn)
			m.conn.Close()
		}
	}
}

func unmarshalData(data json.RawMessage, v interface{}) error {
	return json.Unmarshal(data, v)
}

// rawData passes a payload through untouched when re-broadcasting
func rawData(data json.RawMessage) json.RawMessage {
	return data
}

func (h *Hub) broadcastPresence(sessionID string) {
	h.mu.Lock()
	users := make([]models.UserRef, 0)
	for _, m := range h.rooms[sessionID] {
		users = append(users, m.user)
	}
	h.mu.Unlock()
	h.BroadcastToRoom(sessionID, realtime.EventOnlineUsers, realtime.OnlineUsersPayload{Users: users})
}
