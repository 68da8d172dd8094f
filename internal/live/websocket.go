package live

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

const (
	writeWait      = 10 * time.Second
	clientSendSize = 16
)

// Frame is the JSON message written to websocket viewers
type Frame struct {
	Event string          `json:"event"`
	Data  []models.Sample `json:"data"`
}

// WebSocketHub serves plain websocket viewers. A viewer whose send buffer
// is full is disconnected rather than slowing down the broadcast.
type WebSocketHub struct {
	coord    *Coordinator
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*wsClient
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// enqueue never blocks; it reports false when the buffer is full or closed
func (c *wsClient) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// NewWebSocketHub creates the hub and registers it with coord
func NewWebSocketHub(coord *Coordinator) *WebSocketHub {
	h := &WebSocketHub{
		coord:   coord,
		clients: make(map[string]*wsClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	coord.AddBroadcaster(h)
	return h
}

// ServeHTTP upgrades the connection and keeps it until the viewer leaves
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] Upgrade error: %v", err)
		return
	}

	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientSendSize),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	log.Printf("[WebSocket] Viewer %s connected from %s", client.id, r.RemoteAddr)

	done := make(chan struct{})
	go h.writePump(client, done)

	if err := h.coord.OnConnect(r.Context(), client); err != nil {
		log.Printf("[WebSocket] Snapshot for %s failed: %v", client.id, err)
	}

	// viewers only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(client)
	<-done
	log.Printf("[WebSocket] Viewer %s disconnected", client.id)
}

func (h *WebSocketHub) writePump(c *wsClient, done chan struct{}) {
	defer close(done)
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("[WebSocket] Write to %s failed: %v", c.id, err)
			h.remove(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *WebSocketHub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()
}

// Broadcast queues the frame for every viewer
func (h *WebSocketHub) Broadcast(event string, samples []models.Sample) error {
	msg, err := json.Marshal(Frame{Event: event, Data: samples})
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	h.mu.RLock()
	var slow []*wsClient
	for _, c := range h.clients {
		if !c.enqueue(msg) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Printf("[WebSocket] Dropping slow viewer %s", c.id)
		h.remove(c)
	}
	return nil
}

func (h *WebSocketHub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every viewer
func (h *WebSocketHub) Shutdown() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*wsClient)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Send(event string, samples []models.Sample) error {
	msg, err := json.Marshal(Frame{Event: event, Data: samples})
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if !c.enqueue(msg) {
		return fmt.Errorf("viewer %s is not accepting messages", c.id)
	}
	return nil
}
