package materials

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/pkg/httputil"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

const maxUploadSize = 25 << 20 // 25MB

// Broadcaster pushes an event to every client connected to a room.
type Broadcaster interface {
	BroadcastToRoom(roomCode string, event any)
}

type Handler struct {
	store       *MinioStore
	broadcaster Broadcaster
	log         *logger.Logger
}

func NewHandler(store *MinioStore, broadcaster Broadcaster, log *logger.Logger) *Handler {
	return &Handler{
		store:       store,
		broadcaster: broadcaster,
		log:         log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/materials", httputil.Handler(h.listMaterials, h.log))
	r.Post("/materials", httputil.Handler(h.uploadMaterial, h.log))
	r.Delete("/materials/{fileName}", httputil.Handler(h.deleteMaterial, h.log))
}

func (h *Handler) listMaterials(w http.ResponseWriter, r *http.Request) error {
	roomCode, err := httputil.QueryParam(r, "roomCode")
	if err != nil {
		return err
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	files, err := h.store.List(ctx, roomCode)
	if err != nil {
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, ListFilesResponse{
		RoomCode: roomCode,
		Files:    files,
		Count:    len(files),
	})
}

func (h *Handler) uploadMaterial(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return httputil.BadRequest("invalid multipart form")
	}

	roomCode := r.FormValue("roomCode")
	if roomCode == "" {
		return httputil.BadRequest("roomCode is required")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return httputil.BadRequest("file field is required")
	}
	defer file.Close()

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	uploaded, err := h.store.Upload(ctx, roomCode, header.Filename,
		header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return httputil.Conflict("A file with this name already exists in the room")
		}
		return httputil.Internal(err)
	}

	h.broadcaster.BroadcastToRoom(roomCode, protocol.NewFileUploaded(*toFilePayload(uploaded)))

	return httputil.RespondJSON(w, http.StatusCreated, uploaded)
}

func (h *Handler) deleteMaterial(w http.ResponseWriter, r *http.Request) error {
	fileName, err := url.PathUnescape(chi.URLParam(r, "fileName"))
	if err != nil || fileName == "" {
		return httputil.BadRequest("invalid file name")
	}

	roomCode, err := httputil.QueryParam(r, "roomCode")
	if err != nil {
		return err
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	if err := h.store.Delete(ctx, roomCode, fileName); err != nil {
		return httputil.Internal(err)
	}

	h.broadcaster.BroadcastToRoom(roomCode, protocol.NewFileDeleted(fileName))

	return httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "file deleted",
	})
}

func toFilePayload(f *SharedFile) *protocol.FilePayload {
	return &protocol.FilePayload{
		Name: f.Name,
		URL:  f.URL,
		Type: f.Type,
	}
}

func storeCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 30*time.Second)
}
