package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownType marks frames whose discriminator no handler understands.
// Receivers treat these as a no-op instead of failing the connection.
var ErrUnknownType = errors.New("protocol: unknown frame type")

// Envelope holds the discriminator and the raw JSON for deferred parsing
// into a concrete struct.
type Envelope struct {
	Type EventType       `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the full raw frame and extracts only the "type"
// field so the payload can be decoded later into the matching struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	var partial struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return errors.New(`protocol: missing or empty "type" field`)
	}
	e.Type = partial.Type
	return nil
}

// ParseFrame decodes a raw frame into its concrete event struct, validating
// required fields. Unknown discriminators return ErrUnknownType.
func ParseFrame(data []byte) (EventType, any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}

	switch env.Type {
	case TypeChatMessage:
		var ev ChatMessage
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, decodeErr(env.Type, err)
		}
		if ev.Sender == "" {
			return env.Type, nil, missingField(env.Type, "sender")
		}
		return env.Type, ev, nil

	case TypeTyping:
		var ev Typing
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, decodeErr(env.Type, err)
		}
		if ev.Sender == "" {
			return env.Type, nil, missingField(env.Type, "sender")
		}
		return env.Type, ev, nil

	case TypeStudyUpdate:
		var ev StudyUpdate
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, decodeErr(env.Type, err)
		}
		return env.Type, ev, nil

	case TypeParticipantsUpdate:
		var ev ParticipantsUpdate
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, decodeErr(env.Type, err)
		}
		if ev.Participants == nil {
			return env.Type, nil, missingField(env.Type, "participants")
		}
		return env.Type, ev, nil

	case TypeAddTask:
		var ev AddTask
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, decodeErr(env.Type, err)
		}
		if ev.Task.ID == uuid.Nil {
			return env.Type, nil, missingField(env.Type, "task.id")
		}
		if ev.Task.ListID == uuid.Nil {
			return env.Type, nil, missingField(env.Type, "task.list_id")
		}
		return env.Type, ev, nil

	case TypeRemoveTask:
		var ev RemoveTask
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, decodeErr(env.Type, err)
		}
		if ev.TaskID == uuid.Nil {
			return env.Type, nil, missingField(env.Type, "task_id")
		}
		return env.Type, ev, nil

	case TypeToggleTask:
		var ev ToggleTask
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, decodeErr(env.Type, err)
		}
		if ev.TaskID == uuid.Nil {
			return env.Type, nil, missingField(env.Type, "task_id")
		}
		return env.Type, ev, nil

	case TypeDeleteList:
		var ev DeleteList
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, decodeErr(env.Type, err)
		}
		if ev.ListID == uuid.Nil {
			return env.Type, nil, missingField(env.Type, "list_id")
		}
		return env.Type, ev, nil

	case TypeFileUploaded:
		var ev FileUploaded
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, decodeErr(env.Type, err)
		}
		if ev.File.Name == "" {
			return env.Type, nil, missingField(env.Type, "file.name")
		}
		return env.Type, ev, nil

	case TypeFileDeleted:
		var ev FileDeleted
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, decodeErr(env.Type, err)
		}
		if ev.FileName == "" {
			return env.Type, nil, missingField(env.Type, "fileName")
		}
		return env.Type, ev, nil

	default:
		return env.Type, nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// Encode marshals an event struct built by one of the constructors.
func Encode(event any) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal frame: %w", err)
	}
	return data, nil
}

// ClientRelayable reports whether a client-originated frame of this type may
// be fanned out to the room. Roster and task/file state changes are produced
// by the server only; a client sending them is either buggy or hostile.
func ClientRelayable(t EventType) bool {
	switch t {
	case TypeChatMessage, TypeTyping, TypeStudyUpdate:
		return true
	default:
		return false
	}
}

func decodeErr(t EventType, err error) error {
	return fmt.Errorf("protocol: bad %s payload: %w", t, err)
}

func missingField(t EventType, field string) error {
	return fmt.Errorf("protocol: %s frame missing %s", t, field)
}
