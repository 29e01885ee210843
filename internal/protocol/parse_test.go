package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestParseFrame_ChatMessage(t *testing.T) {
	input := []byte(`{"type":"chat_message","sender":"ana","message":"hi all"}`)

	typ, ev, err := ParseFrame(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != TypeChatMessage {
		t.Fatalf("expected type %q, got %q", TypeChatMessage, typ)
	}

	cm, ok := ev.(ChatMessage)
	if !ok {
		t.Fatalf("expected ChatMessage, got %T", ev)
	}
	if cm.Sender != "ana" {
		t.Errorf("expected sender %q, got %q", "ana", cm.Sender)
	}
	if cm.Message != "hi all" {
		t.Errorf("expected message %q, got %q", "hi all", cm.Message)
	}
}

func TestParseFrame_ToggleTask(t *testing.T) {
	taskID := uuid.New()
	input := []byte(`{"type":"toggle_task","task_id":"` + taskID.String() + `","is_completed":true}`)

	typ, ev, err := ParseFrame(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != TypeToggleTask {
		t.Fatalf("expected type %q, got %q", TypeToggleTask, typ)
	}

	tt, ok := ev.(ToggleTask)
	if !ok {
		t.Fatalf("expected ToggleTask, got %T", ev)
	}
	if tt.TaskID != taskID {
		t.Errorf("expected task_id %s, got %s", taskID, tt.TaskID)
	}
	if !tt.IsCompleted {
		t.Error("expected is_completed to be true")
	}
}

func TestParseFrame_ParticipantsUpdate(t *testing.T) {
	input := []byte(`{"type":"participants_update","participants":["a","b"]}`)

	_, ev, err := ParseFrame(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pu, ok := ev.(ParticipantsUpdate)
	if !ok {
		t.Fatalf("expected ParticipantsUpdate, got %T", ev)
	}
	if len(pu.Participants) != 2 || pu.Participants[0] != "a" || pu.Participants[1] != "b" {
		t.Errorf("unexpected participants: %v", pu.Participants)
	}
}

func TestParseFrame_UnknownType(t *testing.T) {
	input := []byte(`{"type":"pomodoro_sync","phase":"break"}`)

	typ, ev, err := ParseFrame(input)
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if typ != "pomodoro_sync" {
		t.Errorf("expected preserved type %q, got %q", "pomodoro_sync", typ)
	}
	if ev != nil {
		t.Errorf("expected nil event for unknown type, got %#v", ev)
	}
}

func TestParseFrame_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing type", `{"sender":"ana","message":"hi"}`},
		{"empty type", `{"type":"","sender":"ana"}`},
		{"not json", `chat_message ana hi`},
		{"chat without sender", `{"type":"chat_message","message":"hi"}`},
		{"typing without sender", `{"type":"typing"}`},
		{"remove without task id", `{"type":"remove_task"}`},
		{"add_task without task id", `{"type":"add_task","task":{"title":"read"}}`},
		{"file_deleted without name", `{"type":"file_deleted"}`},
		{"participants missing list", `{"type":"participants_update"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := ParseFrame([]byte(tc.input)); err == nil {
				t.Fatalf("expected error for %s", tc.input)
			}
		})
	}
}

func TestEncodeRoundTrip_AddTask(t *testing.T) {
	task := TaskPayload{
		ID:      uuid.New(),
		ListID:  uuid.New(),
		Title:   "read chapter 4",
		Content: "pages 80-120",
	}

	data, err := Encode(NewAddTask(task))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The wire form must carry the discriminator alongside the payload.
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal encoded frame: %v", err)
	}
	if raw["type"] != string(TypeAddTask) {
		t.Errorf("expected type %q, got %v", TypeAddTask, raw["type"])
	}

	typ, ev, err := ParseFrame(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != TypeAddTask {
		t.Fatalf("expected type %q, got %q", TypeAddTask, typ)
	}
	at := ev.(AddTask)
	if at.Task.ID != task.ID || at.Task.Title != task.Title {
		t.Errorf("round trip mismatch: %+v", at.Task)
	}
}

func TestClientRelayable(t *testing.T) {
	relayable := []EventType{TypeChatMessage, TypeTyping, TypeStudyUpdate}
	for _, typ := range relayable {
		if !ClientRelayable(typ) {
			t.Errorf("%s should be relayable", typ)
		}
	}

	serverOnly := []EventType{
		TypeParticipantsUpdate, TypeAddTask, TypeRemoveTask,
		TypeToggleTask, TypeDeleteList, TypeFileUploaded, TypeFileDeleted,
	}
	for _, typ := range serverOnly {
		if ClientRelayable(typ) {
			t.Errorf("%s must not be relayable by clients", typ)
		}
	}
}
