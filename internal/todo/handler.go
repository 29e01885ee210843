package todo

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rx3lixir/studyhall/internal/auth"
	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/pkg/httputil"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

// Broadcaster fans an event out to every socket in a room
type Broadcaster interface {
	BroadcastToRoom(roomCode string, event any)
}

type Handler struct {
	store     Store
	hub       Broadcaster
	log       *logger.Logger
	dbTimeout time.Duration
}

func NewHandler(store Store, hub Broadcaster, log *logger.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{store, hub, log, dbTimeout}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/todolists", httputil.Handler(h.HandleGetUserLists, h.log))
	r.Post("/todolists", httputil.Handler(h.HandleCreateList, h.log))
	r.Get("/todolists/{listID}", httputil.Handler(h.HandleGetList, h.log))
	r.Delete("/todolists/{listID}", httputil.Handler(h.HandleDeleteList, h.log))
	r.Post("/todolists/{listID}/tasks", httputil.Handler(h.HandleCreateTask, h.log))
	r.Patch("/tasks/{taskID}", httputil.Handler(h.HandleToggleTask, h.log))
	r.Delete("/tasks/{taskID}", httputil.Handler(h.HandleDeleteTask, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleGetUserLists returns the caller's personal lists with tasks
func (h *Handler) HandleGetUserLists(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	lists, err := h.store.GetUserLists(ctx, userID)
	if err != nil {
		h.log.Error("failed to get user lists", "user_id", userID, "error", err)
		return httputil.Internal(err)
	}

	response := GetListsResponse{Lists: []ListResponse{}}
	for _, list := range lists {
		lr, err := h.listWithTasks(ctx, list)
		if err != nil {
			return httputil.Internal(err)
		}
		response.Lists = append(response.Lists, lr)
	}
	response.Count = len(response.Lists)

	return httputil.RespondJSON(w, http.StatusOK, response)
}

// HandleGetList returns one list with its tasks (used for shared room lists)
func (h *Handler) HandleGetList(w http.ResponseWriter, r *http.Request) error {
	listID, err := httputil.ParseUUID(r, "listID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	list, err := h.store.GetListByID(ctx, listID)
	if err != nil {
		if errors.Is(err, ErrListNotFound) {
			return httputil.NotFound("List not found")
		}
		return httputil.Internal(err)
	}

	lr, err := h.listWithTasks(ctx, list)
	if err != nil {
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, lr)
}

// HandleCreateList creates a personal list for the caller
func (h *Handler) HandleCreateList(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	req := new(CreateListRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}
	if req.Name == "" {
		return httputil.BadRequest("List name is required")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	list := &List{
		Name:     req.Name,
		IsShared: req.IsShared,
	}
	if !req.IsShared {
		list.OwnerID = &userID
	}

	if err := h.store.CreateList(ctx, list); err != nil {
		h.log.Error("failed to create list", "user_id", userID, "error", err)
		return httputil.Internal(err)
	}

	h.log.Debug("list created",
		"list_id", list.ID,
		"user_id", userID,
		"is_shared", list.IsShared,
	)

	return httputil.RespondJSON(w, http.StatusCreated, list)
}

// HandleDeleteList deletes a list and notifies the room if it was shared
func (h *Handler) HandleDeleteList(w http.ResponseWriter, r *http.Request) error {
	listID, err := httputil.ParseUUID(r, "listID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	list, err := h.store.GetListByID(ctx, listID)
	if err != nil {
		if errors.Is(err, ErrListNotFound) {
			return httputil.NotFound("List not found")
		}
		return httputil.Internal(err)
	}

	if err := h.store.DeleteList(ctx, listID); err != nil {
		return httputil.Internal(err)
	}

	h.notifyRoom(ctx, list, protocol.NewDeleteList(listID))

	return httputil.RespondJSON(w, http.StatusOK, map[string]any{"data": listID})
}

// HandleCreateTask adds a task and broadcasts add_task for shared lists
func (h *Handler) HandleCreateTask(w http.ResponseWriter, r *http.Request) error {
	listID, err := httputil.ParseUUID(r, "listID")
	if err != nil {
		return err
	}

	req := new(CreateTaskRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}
	if req.Title == "" {
		return httputil.BadRequest("Task title is required")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	list, err := h.store.GetListByID(ctx, listID)
	if err != nil {
		if errors.Is(err, ErrListNotFound) {
			return httputil.NotFound("List not found")
		}
		return httputil.Internal(err)
	}

	task := &Task{
		ListID:  list.ID,
		Title:   req.Title,
		Content: req.Content,
	}

	if err := h.store.CreateTask(ctx, task); err != nil {
		h.log.Error("failed to create task", "list_id", listID, "error", err)
		return httputil.Internal(err)
	}

	h.notifyRoom(ctx, list, protocol.NewAddTask(protocol.TaskPayload{
		ID:          task.ID,
		ListID:      task.ListID,
		Title:       task.Title,
		Content:     task.Content,
		IsCompleted: task.IsCompleted,
	}))

	return httputil.RespondJSON(w, http.StatusCreated, task)
}

// HandleToggleTask flips completion and broadcasts the explicit new value
func (h *Handler) HandleToggleTask(w http.ResponseWriter, r *http.Request) error {
	taskID, err := httputil.ParseUUID(r, "taskID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	task, err := h.store.ToggleTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return httputil.NotFound("Task not found")
		}
		return httputil.Internal(err)
	}

	list, err := h.store.GetListByID(ctx, task.ListID)
	if err == nil {
		// Receivers apply the payload value as-is, never a local flip
		h.notifyRoom(ctx, list, protocol.NewToggleTask(task.ID, task.IsCompleted))
	}

	return httputil.RespondJSON(w, http.StatusOK, task)
}

// HandleDeleteTask removes a task and broadcasts remove_task
func (h *Handler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) error {
	taskID, err := httputil.ParseUUID(r, "taskID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	task, err := h.store.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return httputil.NotFound("Task not found")
		}
		return httputil.Internal(err)
	}

	if err := h.store.DeleteTask(ctx, taskID); err != nil {
		return httputil.Internal(err)
	}

	list, err := h.store.GetListByID(ctx, task.ListID)
	if err == nil {
		h.notifyRoom(ctx, list, protocol.NewRemoveTask(taskID))
	}

	return httputil.RespondJSON(w, http.StatusOK, map[string]any{"data": taskID})
}

// notifyRoom broadcasts a list event to the owning room, if any.
// Personal lists have no room and no audience.
func (h *Handler) notifyRoom(ctx context.Context, list *List, event any) {
	if !list.IsShared || h.hub == nil {
		return
	}

	roomCode, err := h.store.GetRoomCodeByListID(ctx, list.ID)
	if err != nil {
		if !errors.Is(err, ErrNoRoom) {
			h.log.Warn("failed to resolve room for broadcast", "list_id", list.ID, "error", err)
		}
		return
	}

	h.hub.BroadcastToRoom(roomCode, event)
}

func (h *Handler) listWithTasks(ctx context.Context, list *List) (ListResponse, error) {
	tasks, err := h.store.GetListTasks(ctx, list.ID)
	if err != nil {
		return ListResponse{}, err
	}

	lr := ListResponse{
		ID:       list.ID,
		Name:     list.Name,
		IsShared: list.IsShared,
		Tasks:    make([]Task, 0, len(tasks)),
	}
	for _, t := range tasks {
		lr.Tasks = append(lr.Tasks, *t)
	}

	return lr, nil
}
