package live

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	socketio "github.com/googollee/go-socket.io"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

// SocketIOBroadcaster serves the socket.io endpoint used by the map client.
// The server speaks Engine.IO v3 (socket.io protocol 1.x/2.x), so the page
// must load a socket.io-client 2.x script itself; /socket.io/socket.io.js is
// not served. Clients that cannot downgrade use the /ws channel.
type SocketIOBroadcaster struct {
	server  *socketio.Server
	coord   *Coordinator
	viewers atomic.Int64
}

// NewSocketIOBroadcaster creates the server and registers it with coord
func NewSocketIOBroadcaster(coord *Coordinator) *SocketIOBroadcaster {
	b := &SocketIOBroadcaster{
		server: socketio.NewServer(nil),
		coord:  coord,
	}

	b.server.OnConnect("/", func(s socketio.Conn) error {
		viewer := &socketViewer{id: uuid.NewString(), conn: s}
		s.SetContext(viewer.id)
		b.viewers.Add(1)
		log.Printf("[SocketIO] Viewer %s connected from %s", viewer.id, s.RemoteAddr())

		if err := coord.OnConnect(context.Background(), viewer); err != nil {
			log.Printf("[SocketIO] Snapshot for %s failed: %v", viewer.id, err)
		}
		return nil
	})

	b.server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		b.viewers.Add(-1)
		log.Printf("[SocketIO] Viewer %v disconnected: %s", s.Context(), reason)
	})

	b.server.OnError("/", func(s socketio.Conn, err error) {
		log.Printf("[SocketIO] Error: %v", err)
	})

	coord.AddBroadcaster(b)
	return b
}

// Start runs the accept loop in the background
func (b *SocketIOBroadcaster) Start() {
	go func() {
		if err := b.server.Serve(); err != nil {
			log.Printf("[SocketIO] Serve stopped: %v", err)
		}
	}()
}

// Close shuts the server down
func (b *SocketIOBroadcaster) Close() error {
	return b.server.Close()
}

// Handler returns the HTTP handler to mount at /socket.io/
func (b *SocketIOBroadcaster) Handler() http.Handler {
	return b.server
}

func (b *SocketIOBroadcaster) Broadcast(event string, samples []models.Sample) error {
	b.server.BroadcastToNamespace("/", event, samples)
	return nil
}

func (b *SocketIOBroadcaster) ViewerCount() int {
	return int(b.viewers.Load())
}

type socketViewer struct {
	id   string
	conn socketio.Conn
}

func (v *socketViewer) ID() string { return v.id }

func (v *socketViewer) Send(event string, samples []models.Sample) error {
	v.conn.Emit(event, samples)
	return nil
}
