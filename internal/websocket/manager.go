package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/rx3lixir/studyhall/internal/metrics"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

// Manager owns one hub per active room and routes broadcasts to them.
type Manager struct {
	hubs     sync.Map // map[string]*Hub, keyed by room code
	presence PresenceSource
	log      *logger.Logger
}

func NewManager(presence PresenceSource, log *logger.Logger) *Manager {
	return &Manager{
		presence: presence,
		log:      log,
	}
}

// GetOrCreateHub returns the room's hub, starting one if needed.
func (m *Manager) GetOrCreateHub(roomCode string) *Hub {
	if hub, ok := m.hubs.Load(roomCode); ok {
		return hub.(*Hub)
	}

	hub := NewHub(roomCode, m.presence, m.removeHub, m.log)
	actual, loaded := m.hubs.LoadOrStore(roomCode, hub)

	if !loaded {
		go hub.Run()
		metrics.ActiveRooms.Inc()
		m.log.Info("created new hub", "room", roomCode)
	}

	return actual.(*Hub)
}

// BroadcastToRoom queues an event for every client connected to the
// room. A room nobody is connected to has no hub and the event is
// dropped, which is fine: joiners fetch current state over REST.
func (m *Manager) BroadcastToRoom(roomCode string, event any) {
	if hub, ok := m.hubs.Load(roomCode); ok {
		hub.(*Hub).Send(event)
	}
}

func (m *Manager) removeHub(roomCode string) {
	if _, ok := m.hubs.LoadAndDelete(roomCode); ok {
		metrics.ActiveRooms.Dec()
	}
}

// ServeWS accepts the WebSocket upgrade and wires the connection into
// the room's hub.
func (m *Manager) ServeWS(
	w http.ResponseWriter,
	r *http.Request,
	userID uuid.UUID,
	username string,
	roomCode string,
) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Browsers connect from a separate dev origin
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}

	hub := m.GetOrCreateHub(roomCode)
	client := NewClient(userID, username, roomCode, conn, hub, m.log)

	hub.register <- client

	// The request context dies when the handler returns, so the pumps
	// get their own lifetime tied to the connection itself.
	pumpCtx := context.Background()
	go client.writePump(pumpCtx)
	go client.readPump(pumpCtx)

	return nil
}

// Shutdown stops every hub and disconnects their clients.
func (m *Manager) Shutdown() {
	m.hubs.Range(func(key, value any) bool {
		value.(*Hub).Shutdown()
		m.hubs.Delete(key)
		metrics.ActiveRooms.Dec()
		return true
	})
}
