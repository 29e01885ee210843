package roomclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

// State describes the connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
)

const defaultRetryDelay = time.Second

// WireConn is one live WebSocket connection. The concrete type wraps
// coder/websocket; tests substitute scripted fakes.
type WireConn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// DialFunc opens a new WireConn to the given URL.
type DialFunc func(ctx context.Context, url string) (WireConn, error)

// Handler receives one decoded protocol event.
type Handler func(event any)

// Conn maintains a room's WebSocket stream. A dropped connection is
// redialed after a fixed delay until Close is called; Close flips the
// reconnect flag before touching the socket so the read loop never
// races a shutdown into a redial.
type Conn struct {
	url        string
	dial       DialFunc
	retryDelay time.Duration
	log        *logger.Logger

	mu              sync.Mutex
	handlers        map[protocol.EventType][]Handler
	wire            WireConn
	state           State
	shouldReconnect bool

	done chan struct{}
}

// ConnOptions tunes a Conn. Zero values fall back to defaults.
type ConnOptions struct {
	Dial       DialFunc
	RetryDelay time.Duration
	Log        *logger.Logger
}

func NewConn(url string, opts ConnOptions) *Conn {
	if opts.RetryDelay == 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Log == nil {
		opts.Log = logger.Must(logger.New(logger.Config{Env: "test"}))
	}

	return &Conn{
		url:             url,
		dial:            opts.Dial,
		retryDelay:      opts.RetryDelay,
		log:             opts.Log,
		handlers:        make(map[protocol.EventType][]Handler),
		shouldReconnect: true,
		done:            make(chan struct{}),
	}
}

// NewDialer returns a DialFunc over coder/websocket that authenticates
// with the given access token.
func NewDialer(token string) DialFunc {
	return func(ctx context.Context, url string) (WireConn, error) {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+token)

		conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
			HTTPHeader: header,
		})
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", url, err)
		}
		return &coderWire{conn: conn}, nil
	}
}

type coderWire struct {
	conn *websocket.Conn
}

func (w *coderWire) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	return data, err
}

func (w *coderWire) Write(ctx context.Context, data []byte) error {
	return w.conn.Write(ctx, websocket.MessageText, data)
}

func (w *coderWire) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}

// On registers a handler for one event type. Handlers run on the read
// loop goroutine, so they must not block.
func (c *Conn) On(t protocol.EventType, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[t] = append(c.handlers[t], h)
}

// Connect dials once synchronously so callers learn about a bad room
// immediately, then keeps the stream alive in the background.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateConnecting
	c.mu.Unlock()

	wire, err := c.dial(ctx, c.url)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("connect: %w", err)
	}

	c.mu.Lock()
	c.wire = wire
	c.state = StateOpen
	c.mu.Unlock()

	go c.readLoop(ctx)
	return nil
}

func (c *Conn) readLoop(ctx context.Context) {
	defer close(c.done)

	for {
		c.mu.Lock()
		wire := c.wire
		c.mu.Unlock()

		for {
			data, err := wire.Read(ctx)
			if err != nil {
				break
			}
			c.dispatch(data)
		}

		if !c.reconnectAllowed() || ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}

		c.log.Info("connection lost, reconnecting", "url", c.url, "delay", c.retryDelay)
		c.setState(StateConnecting)

		wire, ok := c.redial(ctx)
		if !ok {
			c.setState(StateDisconnected)
			return
		}

		// Close may have landed while the dial was in flight. Checked
		// under the same lock that installs the wire, so a discarded
		// connection is never read from.
		c.mu.Lock()
		if !c.shouldReconnect {
			c.mu.Unlock()
			wire.Close()
			c.setState(StateDisconnected)
			return
		}
		c.wire = wire
		c.state = StateOpen
		c.mu.Unlock()
	}
}

// redial retries forever with a fixed delay, giving up only when
// reconnecting is switched off or the context dies.
func (c *Conn) redial(ctx context.Context) (WireConn, bool) {
	for {
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return nil, false
		}

		if !c.reconnectAllowed() {
			return nil, false
		}

		wire, err := c.dial(ctx, c.url)
		if err == nil {
			return wire, true
		}

		c.log.Warn("redial failed", "url", c.url, "error", err)
	}
}

func (c *Conn) dispatch(data []byte) {
	eventType, event, err := protocol.ParseFrame(data)
	if err != nil {
		c.log.Warn("ignoring unparseable frame", "error", err)
		return
	}

	c.mu.Lock()
	handlers := append([]Handler(nil), c.handlers[eventType]...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// Send encodes and writes one event to the current connection.
func (c *Conn) Send(ctx context.Context, event any) error {
	c.mu.Lock()
	wire := c.wire
	state := c.state
	c.mu.Unlock()

	if state != StateOpen || wire == nil {
		return fmt.Errorf("connection is not open")
	}

	data, err := protocol.Encode(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	return wire.Write(ctx, data)
}

// Close disables reconnection and tears down the stream. The reconnect
// flag is cleared in the same critical section that reads the current
// wire, so either the read loop already installed its new connection
// and Close closes that one, or the install check sees the cleared
// flag and discards it. Either way the loop ends and done closes.
func (c *Conn) Close() error {
	c.mu.Lock()
	if !c.shouldReconnect {
		c.mu.Unlock()
		return nil
	}
	c.shouldReconnect = false
	wire := c.wire
	c.mu.Unlock()

	var err error
	if wire != nil {
		err = wire.Close()
		<-c.done
	}

	c.setState(StateDisconnected)
	return err
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) reconnectAllowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shouldReconnect
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
