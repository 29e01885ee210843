package roomclient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

// RoomInfo identifies a joined study session.
type RoomInfo struct {
	RoomCode    string
	SessionName string
	ListID      uuid.UUID
}

// RoomAPI is the REST surface for room lifecycle.
type RoomAPI interface {
	CreateRoom(ctx context.Context, sessionName string) (*RoomInfo, error)
	JoinRoom(ctx context.Context, roomCode string) (*RoomInfo, error)
	LeaveRoom(ctx context.Context, roomCode string) error
}

// SessionAPI is everything a live session needs from the backend.
// *API implements it; tests mix and match fakes.
type SessionAPI interface {
	RoomAPI
	TodoAPI
	MaterialsAPI
	ParticipantAPI
	AvatarResolver
}

// SessionOptions configures a session. Dial is required; the rest
// defaults sensibly.
type SessionOptions struct {
	Username     string
	Dial         DialFunc
	WSBaseURL    string
	RetryDelay   time.Duration
	TypingExpiry time.Duration
	Log          *logger.Logger
}

// Session is one user's live participation in a room: the event
// stream plus the synchronized views built on top of it.
type Session struct {
	Info      RoomInfo
	Conn      *Conn
	Lists     *ListSync
	Presence  *Presence
	Chat      *Chat
	Materials *Materials

	api SessionAPI
	log *logger.Logger
}

// CreateRoom makes a new study session and enters it.
func CreateRoom(ctx context.Context, api SessionAPI, sessionName string, opts SessionOptions) (*Session, error) {
	info, err := api.CreateRoom(ctx, sessionName)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return enterRoom(ctx, api, *info, opts)
}

// JoinRoom enters an existing study session by its code.
func JoinRoom(ctx context.Context, api SessionAPI, roomCode string, opts SessionOptions) (*Session, error) {
	info, err := api.JoinRoom(ctx, roomCode)
	if err != nil {
		return nil, fmt.Errorf("join room: %w", err)
	}
	return enterRoom(ctx, api, *info, opts)
}

// enterRoom wires the stream and the synchronized views, then seeds
// each view so the session starts from current server state.
func enterRoom(ctx context.Context, api SessionAPI, info RoomInfo, opts SessionOptions) (*Session, error) {
	if opts.Log == nil {
		opts.Log = logger.Must(logger.New(logger.Config{Env: "test"}))
	}

	wsURL := fmt.Sprintf("%s/ws/room/%s", opts.WSBaseURL, info.RoomCode)
	conn := NewConn(wsURL, ConnOptions{
		Dial:       opts.Dial,
		RetryDelay: opts.RetryDelay,
		Log:        opts.Log,
	})

	s := &Session{
		Info:      info,
		Conn:      conn,
		Lists:     NewListSync(api),
		Presence:  NewPresence(info.RoomCode, api, api),
		Chat:      NewChat(opts.Username, opts.TypingExpiry),
		Materials: NewMaterials(info.RoomCode, api),
		api:       api,
		log:       opts.Log,
	}

	s.Lists.Bind(conn)
	s.Presence.Bind(conn)
	s.Chat.Bind(conn)
	s.Materials.Bind(conn)

	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}

	if err := s.Presence.Seed(ctx); err != nil {
		s.log.Warn("failed to seed roster", "room", info.RoomCode, "error", err)
	}
	if err := s.Lists.Refresh(ctx); err != nil {
		s.log.Warn("failed to load lists", "room", info.RoomCode, "error", err)
	}
	if err := s.Materials.Refresh(ctx); err != nil {
		s.log.Warn("failed to load materials", "room", info.RoomCode, "error", err)
	}

	return s, nil
}

// SendStudyUpdate broadcasts a freeform progress note to the room,
// the "everyone, pomodoro break" kind of announcement.
func (s *Session) SendStudyUpdate(ctx context.Context, update string) error {
	return s.Conn.Send(ctx, protocol.NewStudyUpdate(update))
}

// Leave exits the room cleanly. The stream closes first, with
// reconnection off, so the connection can't resurrect mid-departure.
// If this user is the last one in the room, the shared materials are
// deleted before the room itself is left. The server runs the same
// cleanup on its side, so either party finishing first is fine.
func (s *Session) Leave(ctx context.Context) error {
	if err := s.Conn.Close(); err != nil {
		s.log.Warn("error closing stream", "room", s.Info.RoomCode, "error", err)
	}

	participants, err := s.api.GetParticipants(ctx, s.Info.RoomCode)
	if err == nil && len(participants) <= 1 {
		s.cleanupMaterials(ctx)
	}

	if err := s.api.LeaveRoom(ctx, s.Info.RoomCode); err != nil {
		return fmt.Errorf("leave room: %w", err)
	}

	return nil
}

func (s *Session) cleanupMaterials(ctx context.Context) {
	files, err := s.api.ListMaterials(ctx, s.Info.RoomCode)
	if err != nil {
		s.log.Warn("failed to list materials for cleanup", "room", s.Info.RoomCode, "error", err)
		return
	}

	for _, file := range files {
		if err := s.api.DeleteMaterial(ctx, s.Info.RoomCode, file.Name); err != nil {
			s.log.Warn("failed to delete material",
				"room", s.Info.RoomCode,
				"file", file.Name,
				"error", err,
			)
		}
	}
}
