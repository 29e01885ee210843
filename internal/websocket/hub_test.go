package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

// slowPresence holds every Roster call until released, standing in for
// a store query that takes its time.
type slowPresence struct {
	release chan struct{}
	roster  []string
}

func (s *slowPresence) Roster(ctx context.Context, _ string) ([]string, error) {
	select {
	case <-s.release:
		return s.roster, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func recvFrame(t *testing.T, send chan []byte) protocol.EventType {
	t.Helper()
	select {
	case data := <-send:
		var envelope struct {
			Type protocol.EventType `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			t.Fatalf("bad frame %s: %v", data, err)
		}
		return envelope.Type
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return ""
	}
}

func TestHubBroadcastsWhileRosterLookupPending(t *testing.T) {
	log := logger.Must(logger.New(logger.Config{Env: "test"}))
	presence := &slowPresence{release: make(chan struct{}), roster: []string{"alice"}}

	hub := NewHub("AAAA1111", presence, nil, log)
	go hub.Run()

	client := &Client{
		username: "alice",
		roomCode: "AAAA1111",
		send:     make(chan []byte, 4),
		log:      log,
	}
	hub.register <- client

	// Registration kicked off a roster lookup that is still stuck in
	// the store. Chat must flow regardless.
	hub.Send(protocol.NewChatMessage("alice", "hello"))
	if got := recvFrame(t, client.send); got != protocol.TypeChatMessage {
		t.Fatalf("frame type = %q, want %q", got, protocol.TypeChatMessage)
	}

	close(presence.release)
	if got := recvFrame(t, client.send); got != protocol.TypeParticipantsUpdate {
		t.Fatalf("frame type = %q, want %q", got, protocol.TypeParticipantsUpdate)
	}

	hub.unregister <- client
	hub.Shutdown()
}
