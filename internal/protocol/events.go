// Package protocol defines the WebSocket frames exchanged between study room
// clients and the server. Every frame is a JSON text message carrying a "type"
// discriminator; payloads are parsed and validated at the socket boundary so
// malformed frames never reach channel handlers.
package protocol

import (
	"github.com/google/uuid"
)

// EventType discriminates room frames
type EventType string

const (
	// Relayed both ways (client sends, server fans out to the room)
	TypeChatMessage EventType = "chat_message"
	TypeTyping      EventType = "typing"
	TypeStudyUpdate EventType = "study_update"

	// Server -> client only
	TypeParticipantsUpdate EventType = "participants_update"
	TypeAddTask            EventType = "add_task"
	TypeRemoveTask         EventType = "remove_task"
	TypeToggleTask         EventType = "toggle_task"
	TypeDeleteList         EventType = "delete_list"
	TypeFileUploaded       EventType = "file_uploaded"
	TypeFileDeleted        EventType = "file_deleted"
)

// ChatMessage carries one chat line to everyone in the room
type ChatMessage struct {
	Type    EventType `json:"type"`
	Sender  string    `json:"sender"`
	Message string    `json:"message"`
}

// Typing signals that Sender is currently composing a message
type Typing struct {
	Type   EventType `json:"type"`
	Sender string    `json:"sender"`
}

// StudyUpdate is a free-form room-wide status note (timer phase changes etc.)
type StudyUpdate struct {
	Type   EventType `json:"type"`
	Update string    `json:"update"`
}

// ParticipantsUpdate replaces the full roster on every receiver
type ParticipantsUpdate struct {
	Type         EventType `json:"type"`
	Participants []string  `json:"participants"`
}

// TaskPayload mirrors a shared to-do task on the wire
type TaskPayload struct {
	ID          uuid.UUID `json:"id"`
	ListID      uuid.UUID `json:"list_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsCompleted bool      `json:"is_completed"`
}

// AddTask announces a task created on a shared list
type AddTask struct {
	Type EventType   `json:"type"`
	Task TaskPayload `json:"task"`
}

// RemoveTask announces a task deletion
type RemoveTask struct {
	Type   EventType `json:"type"`
	TaskID uuid.UUID `json:"task_id"`
}

// ToggleTask carries the explicit new completion value, not a flip
type ToggleTask struct {
	Type        EventType `json:"type"`
	TaskID      uuid.UUID `json:"task_id"`
	IsCompleted bool      `json:"is_completed"`
}

// DeleteList announces that a whole shared list is gone
type DeleteList struct {
	Type   EventType `json:"type"`
	ListID uuid.UUID `json:"list_id"`
}

// FilePayload mirrors a shared material on the wire
type FilePayload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// FileUploaded announces a new shared material
type FileUploaded struct {
	Type EventType   `json:"type"`
	File FilePayload `json:"file"`
}

// FileDeleted announces a removed shared material, keyed by name
type FileDeleted struct {
	Type     EventType `json:"type"`
	FileName string    `json:"fileName"`
}

// TypeOf returns the discriminator of a known event struct, or an
// empty EventType for anything else.
func TypeOf(event any) EventType {
	switch e := event.(type) {
	case ChatMessage:
		return e.Type
	case Typing:
		return e.Type
	case StudyUpdate:
		return e.Type
	case ParticipantsUpdate:
		return e.Type
	case AddTask:
		return e.Type
	case RemoveTask:
		return e.Type
	case ToggleTask:
		return e.Type
	case DeleteList:
		return e.Type
	case FileUploaded:
		return e.Type
	case FileDeleted:
		return e.Type
	}
	return ""
}

// Constructors keep the discriminator consistent with the payload type.

func NewChatMessage(sender, message string) ChatMessage {
	return ChatMessage{Type: TypeChatMessage, Sender: sender, Message: message}
}

func NewTyping(sender string) Typing {
	return Typing{Type: TypeTyping, Sender: sender}
}

func NewStudyUpdate(update string) StudyUpdate {
	return StudyUpdate{Type: TypeStudyUpdate, Update: update}
}

func NewParticipantsUpdate(participants []string) ParticipantsUpdate {
	return ParticipantsUpdate{Type: TypeParticipantsUpdate, Participants: participants}
}

func NewAddTask(task TaskPayload) AddTask {
	return AddTask{Type: TypeAddTask, Task: task}
}

func NewRemoveTask(taskID uuid.UUID) RemoveTask {
	return RemoveTask{Type: TypeRemoveTask, TaskID: taskID}
}

func NewToggleTask(taskID uuid.UUID, isCompleted bool) ToggleTask {
	return ToggleTask{Type: TypeToggleTask, TaskID: taskID, IsCompleted: isCompleted}
}

func NewDeleteList(listID uuid.UUID) DeleteList {
	return DeleteList{Type: TypeDeleteList, ListID: listID}
}

func NewFileUploaded(file FilePayload) FileUploaded {
	return FileUploaded{Type: TypeFileUploaded, File: file}
}

func NewFileDeleted(fileName string) FileDeleted {
	return FileDeleted{Type: TypeFileDeleted, FileName: fileName}
}
