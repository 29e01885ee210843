package roomclient

import (
	"testing"

	"github.com/google/uuid"

	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/internal/todo"
)

func fixtureLists() ([]todo.ListResponse, uuid.UUID, uuid.UUID) {
	listID := uuid.New()
	taskID := uuid.New()

	lists := []todo.ListResponse{
		{
			ID:       listID,
			Name:     "TaskTrack: Study Edition",
			IsShared: true,
			Tasks: []todo.Task{
				{ID: taskID, ListID: listID, Title: "read chapter 4", IsCompleted: false},
			},
		},
	}
	return lists, listID, taskID
}

func TestApplyAddTask(t *testing.T) {
	lists, listID, _ := fixtureLists()
	newID := uuid.New()

	got := ApplyListEvent(lists, protocol.NewAddTask(protocol.TaskPayload{
		ID:     newID,
		ListID: listID,
		Title:  "solve problem set",
	}))

	if len(got[0].Tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(got[0].Tasks))
	}
	if got[0].Tasks[1].ID != newID {
		t.Errorf("appended task id = %v, want %v", got[0].Tasks[1].ID, newID)
	}

	// The input must stay untouched.
	if len(lists[0].Tasks) != 1 {
		t.Errorf("input mutated: %d tasks", len(lists[0].Tasks))
	}
}

func TestApplyAddTaskIsIdempotent(t *testing.T) {
	lists, listID, taskID := fixtureLists()

	// Echo of a task we already hold, e.g. our own optimistic insert
	// coming back over the stream.
	got := ApplyListEvent(lists, protocol.NewAddTask(protocol.TaskPayload{
		ID:     taskID,
		ListID: listID,
		Title:  "read chapter 4",
	}))

	if len(got[0].Tasks) != 1 {
		t.Errorf("got %d tasks after duplicate add, want 1", len(got[0].Tasks))
	}
}

func TestApplyAddTaskUnknownList(t *testing.T) {
	lists, _, _ := fixtureLists()

	got := ApplyListEvent(lists, protocol.NewAddTask(protocol.TaskPayload{
		ID:     uuid.New(),
		ListID: uuid.New(),
		Title:  "orphan",
	}))

	if len(got) != 1 || len(got[0].Tasks) != 1 {
		t.Error("add into unknown list should be a no-op")
	}
}

func TestApplyToggleTaskUsesCarriedValue(t *testing.T) {
	lists, _, taskID := fixtureLists()

	got := ApplyListEvent(lists, protocol.NewToggleTask(taskID, true))
	if !got[0].Tasks[0].IsCompleted {
		t.Error("toggle true did not complete the task")
	}

	// Applying the same event twice converges, it does not flip back.
	got = ApplyListEvent(got, protocol.NewToggleTask(taskID, true))
	if !got[0].Tasks[0].IsCompleted {
		t.Error("replayed toggle flipped the task back")
	}

	got = ApplyListEvent(got, protocol.NewToggleTask(taskID, false))
	if got[0].Tasks[0].IsCompleted {
		t.Error("toggle false did not clear the task")
	}
}

func TestApplyRemoveTaskFiltersAllLists(t *testing.T) {
	lists, _, taskID := fixtureLists()

	otherList := uuid.New()
	lists = append(lists, todo.ListResponse{
		ID:   otherList,
		Name: "personal",
		Tasks: []todo.Task{
			{ID: taskID, ListID: otherList, Title: "stale copy"},
			{ID: uuid.New(), ListID: otherList, Title: "keep me"},
		},
	})

	got := ApplyListEvent(lists, protocol.NewRemoveTask(taskID))

	if len(got[0].Tasks) != 0 {
		t.Errorf("shared list still has %d tasks", len(got[0].Tasks))
	}
	if len(got[1].Tasks) != 1 || got[1].Tasks[0].Title != "keep me" {
		t.Errorf("second list tasks = %+v, want only 'keep me'", got[1].Tasks)
	}
}

func TestApplyRemoveMissingTask(t *testing.T) {
	lists, _, _ := fixtureLists()

	got := ApplyListEvent(lists, protocol.NewRemoveTask(uuid.New()))
	if len(got[0].Tasks) != 1 {
		t.Error("removing an unknown task changed the lists")
	}
}

func TestApplyDeleteList(t *testing.T) {
	lists, listID, _ := fixtureLists()

	got := ApplyListEvent(lists, protocol.NewDeleteList(listID))
	if len(got) != 0 {
		t.Errorf("got %d lists after delete, want 0", len(got))
	}

	got = ApplyListEvent(lists, protocol.NewDeleteList(uuid.New()))
	if len(got) != 1 {
		t.Error("deleting an unknown list changed the lists")
	}
}

func TestApplyUnknownEvent(t *testing.T) {
	lists, _, _ := fixtureLists()

	got := ApplyListEvent(lists, protocol.NewTyping("alice"))
	if len(got) != 1 || len(got[0].Tasks) != 1 {
		t.Error("non-list event should leave the lists untouched")
	}
}
