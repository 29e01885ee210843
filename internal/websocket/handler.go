package websocket

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rx3lixir/studyhall/internal/auth"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

type Handler struct {
	manager     *Manager
	authService *auth.Service
	log         *logger.Logger
}

func NewHandler(manager *Manager, authService *auth.Service, log *logger.Logger) *Handler {
	return &Handler{
		manager:     manager,
		authService: authService,
		log:         log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	// Both paths serve the same stream: chat and list updates share
	// one connection per room.
	r.Get("/room/{roomCode}", h.HandleConnection)
	r.Get("/todolist/{roomCode}", h.HandleConnection)
}

func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	roomCode := chi.URLParam(r, "roomCode")
	if roomCode == "" {
		http.Error(w, "room code required", http.StatusBadRequest)
		return
	}

	// Prefer the Authorization header; browsers can't set headers on
	// WebSocket upgrades, so fall back to a query param.
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	if token == "" {
		http.Error(w, "missing authorization token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authService.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	h.log.Info("establishing websocket connection",
		"room", roomCode,
		"user", claims.Username,
	)

	if err := h.manager.ServeWS(w, r, claims.UserID, claims.Username, roomCode); err != nil {
		h.log.Error("websocket upgrade failed",
			"room", roomCode,
			"user", claims.Username,
			"error", err,
		)
	}
}
