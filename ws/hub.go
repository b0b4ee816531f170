package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vnkhanh/dbsec-lab/logging"
)

type Client struct {
	Conn     *websocket.Conn
	Send     chan []byte
	Username string
}

// Hub fans content-change events out to every connected admin dashboard.
type Hub struct {
	clients map[*websocket.Conn]*Client
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*Client),
	}
}

type ContentChanged struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
}

const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

func (h *Hub) Register(username string, conn *websocket.Conn) *Client {
	client := &Client{
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Username: username,
	}

	h.mutex.Lock()
	h.clients[conn] = client
	h.mutex.Unlock()

	go h.writePump(client)
	return client
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if client, ok := h.clients[conn]; ok {
		close(client.Send)
		delete(h.clients, conn)
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Broadcast never blocks: a client whose buffer is full misses the message.
func (h *Hub) Broadcast(data []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *Hub) BroadcastContentChanged(action, id string) {
	data, err := json.Marshal(ContentChanged{Type: "content_changed", Action: action, ID: id})
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal content change")
		return
	}
	h.Broadcast(data)
}

// readPump blocks until the peer goes away; dashboards never send anything we act on.
func (h *Hub) readPump(conn *websocket.Conn) {
	defer h.Unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writePump(client *Client) {
	defer func() {
		client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		client.Conn.Close()
	}()
	for msg := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
