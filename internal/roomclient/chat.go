package roomclient

import (
	"context"
	"sync"
	"time"

	"github.com/rx3lixir/studyhall/internal/protocol"
)

const defaultTypingExpiry = 3 * time.Second

// ChatEntry is one received chat message.
type ChatEntry struct {
	Sender  string
	Message string
	At      time.Time
}

// Chat keeps the room's message log and the typing indicator. The
// indicator shows the most recent typist and clears itself after a
// quiet period; each typing event bumps a generation counter so a
// stale timer from an earlier keystroke can't wipe a newer one.
type Chat struct {
	sender       string
	typingExpiry time.Duration

	mu        sync.Mutex
	messages  []ChatEntry
	typist    string
	typingGen uint64

	// Injectable for deterministic tests
	now   func() time.Time
	after func(d time.Duration, f func()) *time.Timer
}

func NewChat(sender string, typingExpiry time.Duration) *Chat {
	if typingExpiry == 0 {
		typingExpiry = defaultTypingExpiry
	}
	return &Chat{
		sender:       sender,
		typingExpiry: typingExpiry,
		now:          time.Now,
		after:        time.AfterFunc,
	}
}

// Bind subscribes the chat to conversational events on the stream.
func (c *Chat) Bind(conn *Conn) {
	conn.On(protocol.TypeChatMessage, func(event any) {
		if e, ok := event.(protocol.ChatMessage); ok {
			c.receiveMessage(e)
		}
	})
	conn.On(protocol.TypeTyping, func(event any) {
		if e, ok := event.(protocol.Typing); ok {
			c.receiveTyping(e)
		}
	})
}

// SendMessage pushes a chat message onto the stream. The local log
// grows when the broadcast echoes back, same as for everyone else.
func (c *Chat) SendMessage(ctx context.Context, conn *Conn, message string) error {
	return conn.Send(ctx, protocol.NewChatMessage(c.sender, message))
}

// NotifyTyping announces that this user is typing. Callers invoke it
// per keystroke; the receiving side coalesces.
func (c *Chat) NotifyTyping(ctx context.Context, conn *Conn) error {
	return conn.Send(ctx, protocol.NewTyping(c.sender))
}

func (c *Chat) receiveMessage(e protocol.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, ChatEntry{
		Sender:  e.Sender,
		Message: e.Message,
		At:      c.now(),
	})
}

func (c *Chat) receiveTyping(e protocol.Typing) {
	// A user's own typing events echo back; showing "you are typing"
	// to yourself is useless.
	if e.Sender == c.sender {
		return
	}

	c.mu.Lock()
	c.typist = e.Sender
	c.typingGen++
	gen := c.typingGen
	c.mu.Unlock()

	c.after(c.typingExpiry, func() {
		c.clearTyping(gen)
	})
}

// clearTyping resets the indicator only if no newer typing event has
// arrived since the timer was armed.
func (c *Chat) clearTyping(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.typingGen == gen {
		c.typist = ""
	}
}

// Typist returns who is currently typing, or "" for nobody.
func (c *Chat) Typist() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typist
}

// Messages returns a snapshot of the message log.
func (c *Chat) Messages() []ChatEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChatEntry(nil), c.messages...)
}
