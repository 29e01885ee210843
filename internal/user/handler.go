package user

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rx3lixir/studyhall/internal/auth"
	"github.com/rx3lixir/studyhall/pkg/httputil"
	"github.com/rx3lixir/studyhall/pkg/logger"
	"github.com/rx3lixir/studyhall/pkg/password"
)

const (
	maxAvatarSize   = 2 * 1024 * 1024
	avatarURLExpiry = 1 * time.Hour
)

type Handler struct {
	store       Store
	avatars     *AvatarStore
	authService *auth.Service
	log         *logger.Logger
	dbTimeout   time.Duration
}

func NewHandler(store Store, avatars *AvatarStore, authService *auth.Service, log *logger.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = 5 * time.Second
	}
	return &Handler{store, avatars, authService, log, dbTimeout}
}

// RegisterAuthRoutes registers authentication endpoints (no auth middleware)
func (h *Handler) RegisterAuthRoutes(r chi.Router) {
	r.Post("/signup", httputil.Handler(h.HandleSignup, h.log))
	r.Post("/signin", httputil.Handler(h.HandleSignin, h.log))
	r.Post("/refresh", httputil.Handler(h.HandleRefreshToken, h.log))
}

// RegisterRoutes registers profile endpoints under the protected router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", httputil.Handler(h.HandleProfile, h.log))
	r.Post("/profile/avatar", httputil.Handler(h.HandleUploadAvatar, h.log))
	r.Get("/avatar", httputil.Handler(h.HandleGetAvatar, h.log))
}

// Context that handles database requests
func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleSignup creates a new account and returns a token pair
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) error {
	req := new(CreateUserRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	if err := validateCreateUserRequest(req); err != nil {
		return httputil.BadRequest(err.Error())
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if taken, err := h.store.ExistsByEmail(ctx, email); err != nil {
		return httputil.Internal(err)
	} else if taken {
		return httputil.Conflict("Email is already registered")
	}

	if taken, err := h.store.ExistsByUsername(ctx, req.Username); err != nil {
		return httputil.Internal(err)
	} else if taken {
		return httputil.Conflict("Username is taken")
	}

	hashedPassword, err := password.Hash(req.Password)
	if err != nil {
		h.log.Error("Failed to hash password", "error", err)
		return httputil.Internal(err)
	}

	newUser := &User{
		Username: req.Username,
		Email:    email,
		Password: hashedPassword,
	}

	if err := h.store.CreateUser(ctx, newUser); err != nil {
		h.log.Error("Failed to create user", "error", err)
		return httputil.Internal(err)
	}

	h.log.Info("user registered",
		"user_id", newUser.ID,
		"username", newUser.Username,
	)

	return h.respondWithTokens(w, newUser, http.StatusCreated)
}

// HandleSignin exchanges credentials for a token pair
func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) error {
	req := new(SigninRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	u, err := h.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.Unauthorized("Invalid credentials")
		}
		return httputil.Internal(err)
	}

	if !password.Verify(req.Password, u.Password) {
		return httputil.Unauthorized("Invalid credentials")
	}

	return h.respondWithTokens(w, u, http.StatusOK)
}

// HandleRefreshToken trades a refresh token for a new pair
func (h *Handler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) error {
	req := new(RefreshRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	userID, err := h.authService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return httputil.Unauthorized("Invalid or expired refresh token")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	u, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		return httputil.Unauthorized("User no longer exists")
	}

	return h.respondWithTokens(w, u, http.StatusOK)
}

// HandleProfile returns the currently authenticated user's profile
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("User ID is invalid")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	u, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		return httputil.NotFound("User not found")
	}

	response := ProfileResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}

	return httputil.RespondJSON(w, http.StatusOK, response)
}

// HandleUploadAvatar stores the authenticated user's profile picture
func (h *Handler) HandleUploadAvatar(w http.ResponseWriter, r *http.Request) error {
	username := auth.GetUsername(r.Context())
	if username == "" {
		return httputil.Unauthorized("Unauthorized")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		return httputil.BadRequest("File too large or data is invalid")
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		return httputil.BadRequest("Avatar file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error("Failed to read uploaded avatar", "error", err)
		return httputil.Internal(err)
	}
	if len(data) == 0 {
		return httputil.BadRequest("Empty avatar file")
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()

	contentType := header.Header.Get("Content-Type")
	if err := h.avatars.Upload(ctx, username, data, contentType); err != nil {
		h.log.Error("Failed to upload avatar", "username", username, "error", err)
		return httputil.Internal(err)
	}

	h.log.Debug("avatar uploaded",
		"username", username,
		"size_bytes", len(data),
	)

	url, err := h.avatars.ResolveURL(ctx, username, avatarURLExpiry)
	if err != nil {
		h.log.Warn("Failed to generate avatar URL", "username", username, "error", err)
		url = ""
	}

	return httputil.RespondJSON(w, http.StatusCreated, AvatarResponse{Username: username, URL: url})
}

// HandleGetAvatar resolves an avatar URL for any username.
// 404 means "use your placeholder" to the client.
func (h *Handler) HandleGetAvatar(w http.ResponseWriter, r *http.Request) error {
	username, err := httputil.QueryParam(r, "username")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()

	url, err := h.avatars.ResolveURL(ctx, username, avatarURLExpiry)
	if err != nil {
		if errors.Is(err, ErrNoAvatar) {
			return httputil.NotFound("No avatar for this user")
		}
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, AvatarResponse{Username: username, URL: url})
}

func (h *Handler) respondWithTokens(w http.ResponseWriter, u *User, status int) error {
	accessToken, err := h.authService.GenerateAccessToken(u.ID, u.Email, u.Username)
	if err != nil {
		return httputil.Internal(err)
	}

	refreshToken, err := h.authService.GenerateRefreshToken(u.ID)
	if err != nil {
		return httputil.Internal(err)
	}

	response := AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserResponse{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		},
	}

	return httputil.RespondJSON(w, status, response)
}
