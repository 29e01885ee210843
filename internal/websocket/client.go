package websocket

import (
	"context"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/rx3lixir/studyhall/internal/metrics"
	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 30 * time.Second

	// Maximum frame size allowed from peer
	maxMessageSize = 8192
)

// Client is a single WebSocket connection bound to one room.
type Client struct {
	userID   uuid.UUID
	username string
	roomCode string
	conn     *websocket.Conn
	hub      *Hub
	send     chan []byte
	log      *logger.Logger
}

func NewClient(
	userID uuid.UUID,
	username string,
	roomCode string,
	conn *websocket.Conn,
	hub *Hub,
	log *logger.Logger,
) *Client {
	return &Client{
		userID:   userID,
		username: username,
		roomCode: roomCode,
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, 256),
		log:      log,
	}
}

// readPump pumps frames from the connection into the hub. Runs in a
// per-connection goroutine.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				c.log.Debug("client disconnected",
					"room", c.roomCode,
					"user", c.username,
				)
			} else if !errors.Is(err, context.Canceled) {
				c.log.Warn("websocket read error",
					"room", c.roomCode,
					"user", c.username,
					"error", err,
				)
			}
			return
		}

		metrics.FramesTotal.WithLabelValues("received").Inc()
		c.handleFrame(data)
	}
}

// handleFrame validates an inbound frame and relays it through the
// hub. Only conversational types are accepted from clients; task,
// file, and roster events come from the REST handlers so a client
// can't forge them.
func (c *Client) handleFrame(data []byte) {
	eventType, event, err := protocol.ParseFrame(data)
	if err != nil {
		metrics.FramesTotal.WithLabelValues("rejected").Inc()
		c.log.Warn("dropping bad frame",
			"room", c.roomCode,
			"user", c.username,
			"error", err,
		)
		return
	}

	if !protocol.ClientRelayable(eventType) {
		metrics.FramesTotal.WithLabelValues("rejected").Inc()
		c.log.Warn("dropping non-relayable frame",
			"room", c.roomCode,
			"user", c.username,
			"type", eventType,
		)
		return
	}

	c.hub.Send(event)
}

// writePump pumps hub broadcasts out to the connection, pinging on a
// ticker to detect dead peers. Runs in a per-connection goroutine.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				c.conn.Close(websocket.StatusNormalClosure, "hub closed channel")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()

			if err != nil {
				c.log.Error("failed to write frame",
					"room", c.roomCode,
					"user", c.username,
					"error", err,
				)
				return
			}

		case <-ticker.C:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(writeCtx)
			cancel()

			if err != nil {
				c.log.Warn("failed to ping client",
					"room", c.roomCode,
					"user", c.username,
					"error", err,
				)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) closeConn(reason string) {
	c.conn.Close(websocket.StatusGoingAway, reason)
}
