package websocket

import (
	"context"
	"errors"

	"github.com/rx3lixir/studyhall/internal/room"
)

// RoomRoster adapts the room store to the hub's PresenceSource.
type RoomRoster struct {
	store room.Store
}

func NewRoomRoster(store room.Store) *RoomRoster {
	return &RoomRoster{store: store}
}

// Roster returns the usernames currently in the room. A destroyed room
// yields an empty roster rather than an error so late hub pushes just
// tell stragglers the room is empty.
func (rr *RoomRoster) Roster(ctx context.Context, roomCode string) ([]string, error) {
	found, err := rr.store.GetRoomByCode(ctx, roomCode)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	return rr.store.GetParticipantUsernames(ctx, found.ID)
}
