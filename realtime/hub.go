// Package realtime pushes notification events to connected clients over
// WebSockets. Each user joins a room keyed by their user id; delivery is
// best-effort and connections that fail a write are dropped.
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trello-project/tracking-service/logging"
)

const writeTimeout = 10 * time.Second

// Event is the payload pushed to a user's open connections.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Publisher delivers an event to every open connection of a user.
type Publisher interface {
	Publish(userID string, event Event) error
}

// client serializes writes to one connection. gorilla/websocket permits a
// single concurrent writer per connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(event)
}

// Hub tracks the open connections of each user.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]bool
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Join upgrades the request to a WebSocket and registers the connection in
// the user's room. It blocks until the connection closes.
func (h *Hub) Join(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	cl := &client{conn: conn}
	h.mu.Lock()
	if h.rooms[userID] == nil {
		h.rooms[userID] = make(map[*client]bool)
	}
	h.rooms[userID][cl] = true
	h.mu.Unlock()

	logging.Logger.Infof("User %s joined their notification room", userID)

	// Drain the connection so close frames and pings are handled; clients
	// never send application messages.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(userID, cl)
	logging.Logger.Infof("User %s left their notification room", userID)
	return nil
}

// Publish sends the event to every open connection of the user. Connections
// that fail the write are closed and removed.
func (h *Hub) Publish(userID string, event Event) error {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[userID]))
	for cl := range h.rooms[userID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.write(event); err != nil {
			logging.Logger.Warnf("Dropping connection of user %s after failed write: %v", userID, err)
			h.remove(userID, cl)
		}
	}
	return nil
}

func (h *Hub) remove(userID string, cl *client) {
	h.mu.Lock()
	if room, ok := h.rooms[userID]; ok {
		delete(room, cl)
		if len(room) == 0 {
			delete(h.rooms, userID)
		}
	}
	h.mu.Unlock()
	cl.conn.Close()
}
