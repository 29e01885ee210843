package todo

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrListNotFound = errors.New("list not found")
	ErrTaskNotFound = errors.New("task not found")

	// ErrNoRoom means a list is not attached to any study room,
	// so there is nobody to broadcast to.
	ErrNoRoom = errors.New("list has no room")
)

type Store interface {
	CreateList(ctx context.Context, list *List) error
	GetListByID(ctx context.Context, listID uuid.UUID) (*List, error)
	GetListTasks(ctx context.Context, listID uuid.UUID) ([]*Task, error)
	GetUserLists(ctx context.Context, ownerID uuid.UUID) ([]*List, error)
	DeleteList(ctx context.Context, listID uuid.UUID) error

	CreateTask(ctx context.Context, task *Task) error
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (*Task, error)
	ToggleTask(ctx context.Context, taskID uuid.UUID) (*Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error

	// GetRoomCodeByListID resolves the study room a shared list belongs to.
	// Returns ErrNoRoom for personal lists.
	GetRoomCodeByListID(ctx context.Context, listID uuid.UUID) (string, error)
}
