package websocket

import (
	"context"
	"time"

	"github.com/rx3lixir/studyhall/internal/metrics"
	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

// idleTimeout is how long an empty hub survives before the manager
// tears it down.
const idleTimeout = 5 * time.Minute

// Hub fans events out to every client connected to one room.
type Hub struct {
	roomCode string

	// Registered clients, only touched by the hub goroutine
	clients map[*Client]bool

	// Events to fan out, marshaled once per broadcast
	broadcast chan any

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Shutdown signal
	shutdown chan struct{}

	// Roster lookups for presence pushes
	presence PresenceSource

	// Called from the hub goroutine once the hub has been idle long
	// enough to be collected
	onIdle func(roomCode string)

	lastActivity time.Time

	log *logger.Logger
}

// PresenceSource resolves the current participant roster of a room.
type PresenceSource interface {
	Roster(ctx context.Context, roomCode string) ([]string, error)
}

func NewHub(roomCode string, presence PresenceSource, onIdle func(roomCode string), log *logger.Logger) *Hub {
	return &Hub{
		roomCode:     roomCode,
		clients:      make(map[*Client]bool),
		broadcast:    make(chan any, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		shutdown:     make(chan struct{}),
		presence:     presence,
		onIdle:       onIdle,
		lastActivity: time.Now(),
		log:          log,
	}
}

// Run is the hub's event loop. All state changes happen here, sequentially.
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case event := <-h.broadcast:
			h.handleBroadcast(event)

		case <-ticker.C:
			if h.handleHealthCheck() {
				return
			}

		case <-h.shutdown:
			h.handleShutdown()
			return
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.clients[client] = true
	h.lastActivity = time.Now()
	metrics.ActiveConnections.Inc()

	h.log.Info("client registered",
		"room", h.roomCode,
		"user", client.username,
		"total_clients", len(h.clients),
	)

	h.pushRoster()
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.lastActivity = time.Now()
		metrics.ActiveConnections.Dec()

		h.log.Info("client unregistered",
			"room", h.roomCode,
			"user", client.username,
			"remaining_clients", len(h.clients),
		)

		h.pushRoster()
	}
}

func (h *Hub) handleBroadcast(event any) {
	h.lastActivity = time.Now()

	data, err := protocol.Encode(event)
	if err != nil {
		h.log.Error("failed to encode event", "room", h.roomCode, "error", err)
		return
	}

	metrics.EventsTotal.WithLabelValues(string(protocol.TypeOf(event))).Inc()

	for client := range h.clients {
		select {
		case client.send <- data:
			metrics.FramesTotal.WithLabelValues("broadcast").Inc()
		default:
			// Client can't keep up, drop it
			h.log.Warn("client buffer full, disconnecting",
				"room", h.roomCode,
				"user", client.username,
			)
			metrics.FramesTotal.WithLabelValues("dropped").Inc()
			h.handleUnregister(client)
		}
	}
}

// pushRoster reloads the roster and broadcasts it to everyone still
// connected. Connected clients learn about joins and leaves this way.
// The lookup hits the store, so it runs off the hub goroutine and the
// result comes back through the broadcast channel like any other event.
func (h *Hub) pushRoster() {
	if len(h.clients) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		roster, err := h.presence.Roster(ctx, h.roomCode)
		if err != nil {
			h.log.Error("failed to load roster", "room", h.roomCode, "error", err)
			return
		}

		h.Send(protocol.NewParticipantsUpdate(roster))
	}()
}

// handleHealthCheck reports whether the hub retired itself.
func (h *Hub) handleHealthCheck() bool {
	if len(h.clients) == 0 && time.Since(h.lastActivity) > idleTimeout {
		h.log.Info("hub idle, retiring", "room", h.roomCode)
		if h.onIdle != nil {
			h.onIdle(h.roomCode)
		}
		return true
	}
	return false
}

func (h *Hub) handleShutdown() {
	h.log.Info("shutting down hub", "room", h.roomCode)

	for client := range h.clients {
		close(client.send)
		client.closeConn("server shutting down")
		metrics.ActiveConnections.Dec()
	}

	h.clients = nil
}

// Send queues an event for broadcast without blocking the caller.
func (h *Hub) Send(event any) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Error("hub broadcast channel full", "room", h.roomCode)
		metrics.FramesTotal.WithLabelValues("dropped").Inc()
	}
}

func (h *Hub) Shutdown() {
	close(h.shutdown)
}
