package todo

import (
	"time"

	"github.com/google/uuid"
)

// List groups tasks. Personal lists belong to one user; shared lists belong
// to a study room and have no owner.
type List struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	IsShared  bool       `json:"is_shared"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Task struct {
	ID          uuid.UUID `json:"id"`
	ListID      uuid.UUID `json:"list_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateListRequest struct {
	Name     string `json:"name"`
	IsShared bool   `json:"is_shared"`
}

type CreateTaskRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ListResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsShared bool      `json:"is_shared"`
	Tasks    []Task    `json:"tasks"`
}

type GetListsResponse struct {
	Lists []ListResponse `json:"lists"`
	Count int            `json:"count"`
}
