package materials

import "errors"

// SharedFile is one study material visible to a room.
// The name is the identity key, unique within the room.
type SharedFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

type ListFilesResponse struct {
	RoomCode string       `json:"roomCode"`
	Files    []SharedFile `json:"files"`
	Count    int          `json:"count"`
}

// ErrDuplicateName rejects an upload whose name is already taken in the room.
// The check is advisory: two concurrent uploaders can still race, last write wins.
var ErrDuplicateName = errors.New("a file with this name already exists in the room")
