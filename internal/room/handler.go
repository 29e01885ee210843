package room

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rx3lixir/studyhall/internal/auth"
	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/internal/todo"
	"github.com/rx3lixir/studyhall/pkg/httputil"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

// sharedListName is the title every room's auto-created list gets.
const sharedListName = "TaskTrack: Study Edition"

// MaterialsCleaner removes every stored file under a room's prefix.
type MaterialsCleaner interface {
	DeletePrefix(ctx context.Context, roomCode string) error
}

// Broadcaster pushes an event to every client connected to a room.
type Broadcaster interface {
	BroadcastToRoom(roomCode string, event any)
}

type Handler struct {
	store       Store
	todoStore   todo.Store
	materials   MaterialsCleaner
	broadcaster Broadcaster
	log         *logger.Logger
}

func NewHandler(store Store, todoStore todo.Store, materials MaterialsCleaner, broadcaster Broadcaster, log *logger.Logger) *Handler {
	return &Handler{
		store:       store,
		todoStore:   todoStore,
		materials:   materials,
		broadcaster: broadcaster,
		log:         log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create-room", httputil.Handler(h.createRoom, h.log))
	r.Post("/join-room", httputil.Handler(h.joinRoom, h.log))
	r.Post("/leave-room", httputil.Handler(h.leaveRoom, h.log))
	r.Get("/get-room-details", httputil.Handler(h.getRoomDetails, h.log))
	r.Get("/get-participants", httputil.Handler(h.getParticipants, h.log))
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) error {
	var req CreateRoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return err
	}
	if req.SessionName == "" {
		return httputil.BadRequest("session_name is required")
	}

	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := dbCtx(r.Context())
	defer cancel()

	// A user studies in one room at a time.
	if err := h.store.RemoveUserFromAllRooms(ctx, userID); err != nil {
		return httputil.Internal(err)
	}

	code, err := GenerateUniqueCode(ctx, h.store)
	if err != nil {
		return httputil.Internal(err)
	}

	list := &todo.List{
		ID:        uuid.New(),
		Name:      sharedListName,
		IsShared:  true,
		CreatedAt: time.Now(),
	}
	if err := h.todoStore.CreateList(ctx, list); err != nil {
		return httputil.Internal(fmt.Errorf("create shared list: %w", err))
	}

	newRoom := &Room{
		ID:        uuid.New(),
		RoomCode:  code,
		Name:      req.SessionName,
		CreatedBy: userID,
		ListID:    list.ID,
		CreatedAt: time.Now(),
	}
	if err := h.store.CreateRoom(ctx, newRoom); err != nil {
		return httputil.Internal(err)
	}

	if err := h.store.AddParticipant(ctx, newRoom.ID, userID); err != nil {
		return httputil.Internal(err)
	}

	h.log.Info("room created",
		"room", code,
		"name", req.SessionName,
		"created_by", userID,
	)

	return httputil.RespondJSON(w, http.StatusCreated, CreateRoomResponse{
		RoomCode:    code,
		RoomList:    list.ID,
		SessionName: req.SessionName,
	})
}

func (h *Handler) joinRoom(w http.ResponseWriter, r *http.Request) error {
	var req JoinRoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return err
	}
	if req.RoomCode == "" {
		return httputil.BadRequest("roomCode is required")
	}

	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := dbCtx(r.Context())
	defer cancel()

	joined, err := h.store.GetRoomByCode(ctx, req.RoomCode)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return httputil.NotFound("Room not found")
		}
		return httputil.Internal(err)
	}

	if err := h.store.RemoveUserFromAllRooms(ctx, userID); err != nil {
		return httputil.Internal(err)
	}

	if err := h.store.AddParticipant(ctx, joined.ID, userID); err != nil {
		return httputil.Internal(err)
	}

	h.broadcastRoster(ctx, joined)

	return httputil.RespondJSON(w, http.StatusOK, RoomDetailsResponse{
		RoomCode:    joined.RoomCode,
		SessionName: joined.Name,
		RoomList:    joined.ListID,
		CreatedAt:   joined.CreatedAt,
	})
}

func (h *Handler) leaveRoom(w http.ResponseWriter, r *http.Request) error {
	var req LeaveRoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return err
	}
	if req.RoomCode == "" {
		return httputil.BadRequest("roomCode is required")
	}

	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := dbCtx(r.Context())
	defer cancel()

	left, err := h.store.GetRoomByCode(ctx, req.RoomCode)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			// Another leaver already destroyed the room.
			return httputil.RespondJSON(w, http.StatusOK, map[string]string{
				"message": "left room",
			})
		}
		return httputil.Internal(err)
	}

	if err := h.store.RemoveParticipant(ctx, left.ID, userID); err != nil {
		return httputil.Internal(err)
	}

	remaining, err := h.store.CountParticipants(ctx, left.ID)
	if err != nil {
		return httputil.Internal(err)
	}

	if remaining == 0 {
		if err := h.destroyRoom(ctx, left); err != nil {
			return err
		}
	} else {
		h.broadcastRoster(ctx, left)
	}

	return httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "left room",
	})
}

// destroyRoom tears down an empty room. The room row delete is the
// commit point: whoever wins it owns the rest of the cleanup, so
// materials and the shared list are removed exactly once.
func (h *Handler) destroyRoom(ctx context.Context, dead *Room) error {
	claimed, err := h.store.DeleteRoomByID(ctx, dead.ID)
	if err != nil {
		return httputil.Internal(err)
	}
	if !claimed {
		return nil
	}

	if err := h.materials.DeletePrefix(ctx, dead.RoomCode); err != nil {
		h.log.Error("failed to clean up room materials", "room", dead.RoomCode, "error", err)
	}

	if err := h.todoStore.DeleteList(ctx, dead.ListID); err != nil && !errors.Is(err, todo.ErrListNotFound) {
		h.log.Error("failed to delete shared list", "room", dead.RoomCode, "error", err)
	}

	h.log.Info("room destroyed", "room", dead.RoomCode)
	return nil
}

func (h *Handler) getRoomDetails(w http.ResponseWriter, r *http.Request) error {
	roomCode, err := httputil.QueryParam(r, "roomCode")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r.Context())
	defer cancel()

	found, err := h.store.GetRoomByCode(ctx, roomCode)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return httputil.NotFound("Room not found")
		}
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, RoomDetailsResponse{
		RoomCode:    found.RoomCode,
		SessionName: found.Name,
		RoomList:    found.ListID,
		CreatedAt:   found.CreatedAt,
	})
}

func (h *Handler) getParticipants(w http.ResponseWriter, r *http.Request) error {
	roomCode, err := httputil.QueryParam(r, "roomCode")
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r.Context())
	defer cancel()

	found, err := h.store.GetRoomByCode(ctx, roomCode)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return httputil.NotFound("Room not found")
		}
		return httputil.Internal(err)
	}

	usernames, err := h.store.GetParticipantUsernames(ctx, found.ID)
	if err != nil {
		return httputil.Internal(err)
	}

	participants := make([]Participant, 0, len(usernames))
	for _, name := range usernames {
		participants = append(participants, Participant{Username: name})
	}

	return httputil.RespondJSON(w, http.StatusOK, ParticipantsResponse{
		ParticipantsList: participants,
	})
}

func (h *Handler) broadcastRoster(ctx context.Context, target *Room) {
	usernames, err := h.store.GetParticipantUsernames(ctx, target.ID)
	if err != nil {
		h.log.Error("failed to load roster for broadcast", "room", target.RoomCode, "error", err)
		return
	}
	h.broadcaster.BroadcastToRoom(target.RoomCode, protocol.NewParticipantsUpdate(usernames))
}

func dbCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 10*time.Second)
}
