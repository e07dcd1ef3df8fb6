package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/CageChen/fileexplorer/internal/explorer"
	"github.com/CageChen/fileexplorer/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Message types sent to websocket clients
const (
	MessageVisit            = "visit"
	MessageDirectoryChanged = "directoryChanged"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the UI may be served from another port during development
	},
}

// WSMessage is the envelope of every message pushed to clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// wsClient serializes writes to one connection; gorilla allows a single
// concurrent writer.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// WSHandler pushes visitor events and directory changes to every connected
// client. Clients only listen; anything they send is discarded.
type WSHandler struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler() *WSHandler {
	return &WSHandler{clients: make(map[*wsClient]struct{})}
}

// HandleWS upgrades the request and keeps the connection until the client
// leaves or stops answering pings.
func (h *WSHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		h.drop(client)
	}()
	go h.ping(client, done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) ping(client *wsClient, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Clients returns the number of connected clients.
func (h *WSHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OnVisit forwards one visitor notification. It is an explorer.Sink.
func (h *WSHandler) OnVisit(ev explorer.Event) {
	h.broadcast(WSMessage{Type: MessageVisit, Payload: ev})
}

// OnFileChange tells clients that a watched directory changed so those
// showing it can list it again.
func (h *WSHandler) OnFileChange(event watcher.Event) {
	h.broadcast(WSMessage{
		Type: MessageDirectoryChanged,
		Payload: map[string]string{
			"event": event.Type.String(),
			"dir":   event.Dir,
			"name":  event.Name,
		},
	})
}

func (h *WSHandler) drop(client *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if ok {
		_ = client.conn.Close()
	}
}

func (h *WSHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(websocket.TextMessage, data); err != nil {
			h.drop(client)
		}
	}
}
