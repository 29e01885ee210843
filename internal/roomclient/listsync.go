package roomclient

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/internal/todo"
)

// TodoAPI is the REST surface list mutations go through. Events coming
// back over the stream confirm what the server actually did.
type TodoAPI interface {
	GetLists(ctx context.Context) ([]todo.ListResponse, error)
	CreateTask(ctx context.Context, listID uuid.UUID, title, content string) (*todo.Task, error)
	ToggleTask(ctx context.Context, taskID uuid.UUID) error
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
	DeleteList(ctx context.Context, listID uuid.UUID) error
}

// ListSync mirrors the room's task lists. Stream events mutate the
// local copy so every participant converges on the same lists without
// refetching.
type ListSync struct {
	api TodoAPI

	mu    sync.Mutex
	lists []todo.ListResponse
}

func NewListSync(api TodoAPI) *ListSync {
	return &ListSync{api: api}
}

// Bind subscribes the synchronizer to list events on the stream.
func (s *ListSync) Bind(conn *Conn) {
	conn.On(protocol.TypeAddTask, func(event any) {
		if e, ok := event.(protocol.AddTask); ok {
			s.apply(e)
		}
	})
	conn.On(protocol.TypeToggleTask, func(event any) {
		if e, ok := event.(protocol.ToggleTask); ok {
			s.apply(e)
		}
	})
	conn.On(protocol.TypeRemoveTask, func(event any) {
		if e, ok := event.(protocol.RemoveTask); ok {
			s.apply(e)
		}
	})
	conn.On(protocol.TypeDeleteList, func(event any) {
		if e, ok := event.(protocol.DeleteList); ok {
			s.apply(e)
		}
	})
}

// Refresh replaces the local copy with the server's.
func (s *ListSync) Refresh(ctx context.Context) error {
	lists, err := s.api.GetLists(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lists = lists
	s.mu.Unlock()
	return nil
}

// Lists returns a snapshot of the mirrored lists.
func (s *ListSync) Lists() []todo.ListResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLists(s.lists)
}

func (s *ListSync) apply(event any) {
	s.mu.Lock()
	s.lists = ApplyListEvent(s.lists, event)
	s.mu.Unlock()
}

// AddTask creates a task through the API and applies it locally right
// away. The broadcast that follows is a no-op thanks to the idempotent
// add rule.
func (s *ListSync) AddTask(ctx context.Context, listID uuid.UUID, title, content string) (*todo.Task, error) {
	task, err := s.api.CreateTask(ctx, listID, title, content)
	if err != nil {
		return nil, err
	}

	s.apply(protocol.NewAddTask(protocol.TaskPayload{
		ID:          task.ID,
		ListID:      task.ListID,
		Title:       task.Title,
		Content:     task.Content,
		IsCompleted: task.IsCompleted,
	}))
	return task, nil
}

// ToggleTask flips a task's completion through the API. The local copy
// updates when the authoritative broadcast arrives, carrying the value
// the server actually stored.
func (s *ListSync) ToggleTask(ctx context.Context, taskID uuid.UUID) error {
	return s.api.ToggleTask(ctx, taskID)
}

// RemoveTask deletes a task through the API and drops it locally.
func (s *ListSync) RemoveTask(ctx context.Context, taskID uuid.UUID) error {
	if err := s.api.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	s.apply(protocol.NewRemoveTask(taskID))
	return nil
}

// RemoveList deletes a whole list through the API and drops it locally.
func (s *ListSync) RemoveList(ctx context.Context, listID uuid.UUID) error {
	if err := s.api.DeleteList(ctx, listID); err != nil {
		return err
	}
	s.apply(protocol.NewDeleteList(listID))
	return nil
}

// ApplyListEvent returns the lists after applying one stream event.
// The rules make replays and echoes safe to apply blindly:
//
//   - add_task skips the insert when the task id is already present
//   - toggle_task sets the completion flag to the carried value
//   - remove_task filters the id out of every list
//   - delete_list drops the whole list
//
// Anything else returns the input untouched.
func ApplyListEvent(lists []todo.ListResponse, event any) []todo.ListResponse {
	switch e := event.(type) {
	case protocol.AddTask:
		return applyAddTask(lists, e)
	case protocol.ToggleTask:
		return applyToggleTask(lists, e)
	case protocol.RemoveTask:
		return applyRemoveTask(lists, e)
	case protocol.DeleteList:
		return applyDeleteList(lists, e)
	}
	return lists
}

func applyAddTask(lists []todo.ListResponse, e protocol.AddTask) []todo.ListResponse {
	for _, list := range lists {
		for _, task := range list.Tasks {
			if task.ID == e.Task.ID {
				return lists
			}
		}
	}

	out := cloneLists(lists)
	for i := range out {
		if out[i].ID == e.Task.ListID {
			out[i].Tasks = append(out[i].Tasks, todo.Task{
				ID:          e.Task.ID,
				ListID:      e.Task.ListID,
				Title:       e.Task.Title,
				Content:     e.Task.Content,
				IsCompleted: e.Task.IsCompleted,
			})
			return out
		}
	}
	return lists
}

func applyToggleTask(lists []todo.ListResponse, e protocol.ToggleTask) []todo.ListResponse {
	out := cloneLists(lists)
	for i := range out {
		for j := range out[i].Tasks {
			if out[i].Tasks[j].ID == e.TaskID {
				out[i].Tasks[j].IsCompleted = e.IsCompleted
			}
		}
	}
	return out
}

func applyRemoveTask(lists []todo.ListResponse, e protocol.RemoveTask) []todo.ListResponse {
	out := cloneLists(lists)
	for i := range out {
		kept := out[i].Tasks[:0]
		for _, task := range out[i].Tasks {
			if task.ID != e.TaskID {
				kept = append(kept, task)
			}
		}
		out[i].Tasks = kept
	}
	return out
}

func applyDeleteList(lists []todo.ListResponse, e protocol.DeleteList) []todo.ListResponse {
	out := make([]todo.ListResponse, 0, len(lists))
	for _, list := range lists {
		if list.ID != e.ListID {
			out = append(out, cloneList(list))
		}
	}
	return out
}

func cloneLists(lists []todo.ListResponse) []todo.ListResponse {
	out := make([]todo.ListResponse, len(lists))
	for i, list := range lists {
		out[i] = cloneList(list)
	}
	return out
}

func cloneList(list todo.ListResponse) todo.ListResponse {
	clone := list
	clone.Tasks = append([]todo.Task(nil), list.Tasks...)
	return clone
}
