package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rx3lixir/studyhall/internal/auth"
	"github.com/rx3lixir/studyhall/internal/materials"
	"github.com/rx3lixir/studyhall/internal/metrics"
	"github.com/rx3lixir/studyhall/internal/room"
	"github.com/rx3lixir/studyhall/internal/todo"
	"github.com/rx3lixir/studyhall/internal/user"
	"github.com/rx3lixir/studyhall/internal/websocket"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

type RouterConfig struct {
	UserHandler      *user.Handler
	RoomHandler      *room.Handler
	TodoHandler      *todo.Handler
	MaterialsHandler *materials.Handler
	WSHandler        *websocket.Handler
	AuthService      *auth.Service
	Log              *logger.Logger
}

func NewRouter(config RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		// Auth routes (no middleware)
		r.Route("/auth", func(r chi.Router) {
			config.UserHandler.RegisterAuthRoutes(r)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(config.AuthService))

			config.UserHandler.RegisterRoutes(r)
			config.RoomHandler.RegisterRoutes(r)
			config.TodoHandler.RegisterRoutes(r)
			config.MaterialsHandler.RegisterRoutes(r)
		})
	})

	// WebSocket routes do their own token validation: browsers can't
	// attach headers to upgrade requests.
	r.Route("/ws", func(r chi.Router) {
		config.WSHandler.RegisterRoutes(r)
	})

	r.Handle("/metrics", metrics.Handler())

	return r
}
