package roomclient

import (
	"testing"
	"time"

	"github.com/rx3lixir/studyhall/internal/protocol"
)

// manualTimers collects armed timer callbacks so tests fire them in a
// chosen order instead of waiting out real delays.
type manualTimers struct {
	callbacks []func()
}

func (m *manualTimers) after(_ time.Duration, f func()) *time.Timer {
	m.callbacks = append(m.callbacks, f)
	return nil
}

func (m *manualTimers) fire(i int) {
	m.callbacks[i]()
}

func newTestChat(sender string) (*Chat, *manualTimers) {
	timers := &manualTimers{}
	c := NewChat(sender, defaultTypingExpiry)
	c.after = timers.after
	return c, timers
}

func TestChatAppendsMessages(t *testing.T) {
	c, _ := newTestChat("alice")

	c.receiveMessage(protocol.NewChatMessage("bob", "hi"))
	c.receiveMessage(protocol.NewChatMessage("alice", "hey bob"))

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Sender != "bob" || msgs[1].Message != "hey bob" {
		t.Errorf("unexpected log: %+v", msgs)
	}
}

func TestTypingExpires(t *testing.T) {
	c, timers := newTestChat("alice")

	c.receiveTyping(protocol.NewTyping("bob"))
	if got := c.Typist(); got != "bob" {
		t.Fatalf("Typist() = %q, want bob", got)
	}

	timers.fire(0)
	if got := c.Typist(); got != "" {
		t.Errorf("Typist() after expiry = %q, want empty", got)
	}
}

func TestStaleTimerDoesNotClearNewTypist(t *testing.T) {
	c, timers := newTestChat("alice")

	// Two quick keystrokes from bob, then the first timer fires late.
	c.receiveTyping(protocol.NewTyping("bob"))
	c.receiveTyping(protocol.NewTyping("bob"))

	timers.fire(0)
	if got := c.Typist(); got != "bob" {
		t.Errorf("stale timer cleared the indicator, Typist() = %q", got)
	}

	timers.fire(1)
	if got := c.Typist(); got != "" {
		t.Errorf("Typist() after final expiry = %q, want empty", got)
	}
}

func TestLastTypistWins(t *testing.T) {
	c, timers := newTestChat("alice")

	c.receiveTyping(protocol.NewTyping("bob"))
	c.receiveTyping(protocol.NewTyping("carol"))

	if got := c.Typist(); got != "carol" {
		t.Fatalf("Typist() = %q, want carol", got)
	}

	// Bob's timer fires first and must not erase carol.
	timers.fire(0)
	if got := c.Typist(); got != "carol" {
		t.Errorf("Typist() = %q after bob's timer, want carol", got)
	}
}

func TestOwnTypingIgnored(t *testing.T) {
	c, timers := newTestChat("alice")

	c.receiveTyping(protocol.NewTyping("alice"))

	if got := c.Typist(); got != "" {
		t.Errorf("Typist() = %q, own typing should be ignored", got)
	}
	if len(timers.callbacks) != 0 {
		t.Error("own typing armed an expiry timer")
	}
}
