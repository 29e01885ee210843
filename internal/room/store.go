package room

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrRoomNotFound = errors.New("room not found")

// Store persists rooms and their participant rosters.
type Store interface {
	CreateRoom(ctx context.Context, room *Room) error
	GetRoomByCode(ctx context.Context, roomCode string) (*Room, error)
	// DeleteRoomByID removes the room row and reports whether this
	// call actually deleted it. Concurrent leavers race on the same
	// row; only the caller that wins runs the rest of the cleanup.
	DeleteRoomByID(ctx context.Context, roomID uuid.UUID) (bool, error)
	CodeExists(ctx context.Context, roomCode string) (bool, error)

	AddParticipant(ctx context.Context, roomID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error
	CountParticipants(ctx context.Context, roomID uuid.UUID) (int, error)
	GetParticipantUsernames(ctx context.Context, roomID uuid.UUID) ([]string, error)
	RemoveUserFromAllRooms(ctx context.Context, userID uuid.UUID) error
}
