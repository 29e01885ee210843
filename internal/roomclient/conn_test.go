package roomclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rx3lixir/studyhall/internal/protocol"
)

type fakeWire struct {
	frames chan []byte

	mu     sync.Mutex
	closed chan struct{}
	once   sync.Once
	writes [][]byte
}

func newFakeWire() *fakeWire {
	return &fakeWire{
		frames: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (w *fakeWire) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-w.frames:
		return data, nil
	case <-w.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *fakeWire) Write(_ context.Context, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, data)
	return nil
}

func (w *fakeWire) Close() error {
	w.once.Do(func() { close(w.closed) })
	return nil
}

// drop simulates the server side cutting the connection.
func (w *fakeWire) drop() {
	w.Close()
}

type fakeDialer struct {
	mu    sync.Mutex
	wires []*fakeWire
	calls int
}

func (d *fakeDialer) dial(_ context.Context, _ string) (WireConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.calls >= len(d.wires) {
		return nil, errors.New("no more scripted connections")
	}
	wire := d.wires[d.calls]
	d.calls++
	return wire, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func encodeChat(t *testing.T, sender, message string) []byte {
	t.Helper()
	data, err := protocol.Encode(protocol.NewChatMessage(sender, message))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func TestConnDispatchesFrames(t *testing.T) {
	wire := newFakeWire()
	dialer := &fakeDialer{wires: []*fakeWire{wire}}

	conn := NewConn("ws://test/ws/room/AAAA1111", ConnOptions{
		Dial:       dialer.dial,
		RetryDelay: time.Millisecond,
	})

	received := make(chan protocol.ChatMessage, 1)
	conn.On(protocol.TypeChatMessage, func(event any) {
		received <- event.(protocol.ChatMessage)
	})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer conn.Close()

	wire.frames <- encodeChat(t, "alice", "hello")

	select {
	case msg := <-received:
		if msg.Sender != "alice" || msg.Message != "hello" {
			t.Errorf("got %+v, want sender=alice message=hello", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("handler was never invoked")
	}

	if conn.State() != StateOpen {
		t.Errorf("State() = %v, want StateOpen", conn.State())
	}
}

func TestConnReconnectsAfterDrop(t *testing.T) {
	wire1 := newFakeWire()
	wire2 := newFakeWire()
	dialer := &fakeDialer{wires: []*fakeWire{wire1, wire2}}

	conn := NewConn("ws://test/ws/room/AAAA1111", ConnOptions{
		Dial:       dialer.dial,
		RetryDelay: time.Millisecond,
	})

	received := make(chan protocol.ChatMessage, 1)
	conn.On(protocol.TypeChatMessage, func(event any) {
		received <- event.(protocol.ChatMessage)
	})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer conn.Close()

	// Server drops the first connection; the conn should redial and
	// keep receiving on the second.
	wire1.drop()
	wire2.frames <- encodeChat(t, "bob", "still here")

	select {
	case msg := <-received:
		if msg.Sender != "bob" {
			t.Errorf("got sender %q, want bob", msg.Sender)
		}
	case <-time.After(time.Second):
		t.Fatal("no frame received after reconnect")
	}

	if got := dialer.dialCount(); got != 2 {
		t.Errorf("dial count = %d, want 2", got)
	}
}

func TestConnCloseStopsReconnecting(t *testing.T) {
	wire := newFakeWire()
	dialer := &fakeDialer{wires: []*fakeWire{wire, newFakeWire()}}

	conn := NewConn("ws://test/ws/room/AAAA1111", ConnOptions{
		Dial:       dialer.dial,
		RetryDelay: time.Millisecond,
	})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Give a stale redial every chance to fire.
	time.Sleep(20 * time.Millisecond)

	if got := dialer.dialCount(); got != 1 {
		t.Errorf("dial count after Close = %d, want 1", got)
	}
	if conn.State() != StateDisconnected {
		t.Errorf("State() = %v, want StateDisconnected", conn.State())
	}
}

// blockingDialer serves the first connection immediately and holds the
// second dial open until released, so a teardown can land mid-dial.
type blockingDialer struct {
	first   *fakeWire
	second  *fakeWire
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (d *blockingDialer) dial(_ context.Context, _ string) (WireConn, error) {
	d.mu.Lock()
	d.calls++
	call := d.calls
	d.mu.Unlock()

	if call == 1 {
		return d.first, nil
	}

	close(d.started)
	<-d.release
	return d.second, nil
}

func TestConnCloseDuringRedialDiscardsNewConnection(t *testing.T) {
	dialer := &blockingDialer{
		first:   newFakeWire(),
		second:  newFakeWire(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	conn := NewConn("ws://test/ws/room/AAAA1111", ConnOptions{
		Dial:       dialer.dial,
		RetryDelay: time.Millisecond,
	})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	// Drop the live connection and wait until the redial is in flight.
	dialer.first.drop()
	select {
	case <-dialer.started:
	case <-time.After(time.Second):
		t.Fatal("redial never started")
	}

	closed := make(chan error, 1)
	go func() { closed <- conn.Close() }()

	// Let the in-flight dial finish now that Close has been requested.
	close(dialer.release)

	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close() did not return while a dial was in flight")
	}

	if conn.State() != StateDisconnected {
		t.Errorf("State() = %v after Close, want StateDisconnected", conn.State())
	}

	// The connection that won the race must have been discarded.
	select {
	case <-dialer.second.closed:
	case <-time.After(time.Second):
		t.Error("post-Close connection was installed instead of closed")
	}
}

func TestConnSendEncodesEvents(t *testing.T) {
	wire := newFakeWire()
	dialer := &fakeDialer{wires: []*fakeWire{wire}}

	conn := NewConn("ws://test/ws/room/AAAA1111", ConnOptions{
		Dial:       dialer.dial,
		RetryDelay: time.Millisecond,
	})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer conn.Close()

	if err := conn.Send(context.Background(), protocol.NewTyping("alice")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	wire.mu.Lock()
	writes := len(wire.writes)
	var frame []byte
	if writes > 0 {
		frame = wire.writes[0]
	}
	wire.mu.Unlock()

	if writes != 1 {
		t.Fatalf("wrote %d frames, want 1", writes)
	}

	eventType, event, err := protocol.ParseFrame(frame)
	if err != nil {
		t.Fatalf("ParseFrame(written frame) error = %v", err)
	}
	if eventType != protocol.TypeTyping {
		t.Errorf("written frame type = %q, want %q", eventType, protocol.TypeTyping)
	}
	if typing := event.(protocol.Typing); typing.Sender != "alice" {
		t.Errorf("written sender = %q, want alice", typing.Sender)
	}
}

func TestConnSendWhileDisconnected(t *testing.T) {
	conn := NewConn("ws://test/ws/room/AAAA1111", ConnOptions{
		Dial:       (&fakeDialer{}).dial,
		RetryDelay: time.Millisecond,
	})

	if err := conn.Send(context.Background(), protocol.NewTyping("alice")); err == nil {
		t.Error("Send() on a never-connected conn should fail")
	}
}
