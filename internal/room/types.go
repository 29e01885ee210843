package room

import (
	"time"

	"github.com/google/uuid"
)

// Room is one live study session. Every room owns a shared to-do list
// and a materials prefix in object storage, both destroyed with it.
type Room struct {
	ID        uuid.UUID `json:"id"`
	RoomCode  string    `json:"roomCode"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"createdBy"`
	ListID    uuid.UUID `json:"listId"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateRoomRequest struct {
	SessionName string `json:"session_name"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type LeaveRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type CreateRoomResponse struct {
	RoomCode    string    `json:"roomCode"`
	RoomList    uuid.UUID `json:"roomList"`
	SessionName string    `json:"sessionName"`
}

type RoomDetailsResponse struct {
	RoomCode    string    `json:"roomCode"`
	SessionName string    `json:"sessionName"`
	RoomList    uuid.UUID `json:"roomList"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Participant struct {
	Username string `json:"username"`
}

type ParticipantsResponse struct {
	ParticipantsList []Participant `json:"participantsList"`
}
