package roomclient

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rx3lixir/studyhall/internal/protocol"
)

// ErrDuplicateFile rejects an upload whose name is already in the
// mirror, before any bytes go over the wire.
var ErrDuplicateFile = errors.New("a file with this name is already shared in the room")

// MaterialsAPI is the REST surface for shared files.
type MaterialsAPI interface {
	ListMaterials(ctx context.Context, roomCode string) ([]protocol.FilePayload, error)
	UploadMaterial(ctx context.Context, roomCode, fileName string, r io.Reader) (*protocol.FilePayload, error)
	DeleteMaterial(ctx context.Context, roomCode, fileName string) error
}

// Materials mirrors the room's shared files, keyed by file name.
// Stream events keep the mirror current; uploads from this client are
// applied locally so the broadcast echo becomes a no-op.
type Materials struct {
	roomCode string
	api      MaterialsAPI

	mu    sync.Mutex
	files []protocol.FilePayload
}

func NewMaterials(roomCode string, api MaterialsAPI) *Materials {
	return &Materials{
		roomCode: roomCode,
		api:      api,
	}
}

// Bind subscribes the mirror to file events on the stream.
func (m *Materials) Bind(conn *Conn) {
	conn.On(protocol.TypeFileUploaded, func(event any) {
		if e, ok := event.(protocol.FileUploaded); ok {
			m.addFile(e.File)
		}
	})
	conn.On(protocol.TypeFileDeleted, func(event any) {
		if e, ok := event.(protocol.FileDeleted); ok {
			m.removeFile(e.FileName)
		}
	})
}

// Refresh replaces the mirror with the server's listing.
func (m *Materials) Refresh(ctx context.Context) error {
	files, err := m.api.ListMaterials(ctx, m.roomCode)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.files = files
	m.mu.Unlock()
	return nil
}

// Upload sends a file to the room and records it locally. A name
// already in the mirror fails without touching the server.
func (m *Materials) Upload(ctx context.Context, fileName string, r io.Reader) (*protocol.FilePayload, error) {
	if m.contains(fileName) {
		return nil, ErrDuplicateFile
	}

	uploaded, err := m.api.UploadMaterial(ctx, m.roomCode, fileName, r)
	if err != nil {
		return nil, err
	}

	m.addFile(*uploaded)
	return uploaded, nil
}

// Delete removes a file from the room and drops it locally.
func (m *Materials) Delete(ctx context.Context, fileName string) error {
	if err := m.api.DeleteMaterial(ctx, m.roomCode, fileName); err != nil {
		return err
	}

	m.removeFile(fileName)
	return nil
}

func (m *Materials) contains(fileName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.files {
		if f.Name == fileName {
			return true
		}
	}
	return false
}

// addFile appends unless a file with the same name is already listed.
func (m *Materials) addFile(file protocol.FilePayload) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.files {
		if f.Name == file.Name {
			return
		}
	}
	m.files = append(m.files, file)
}

func (m *Materials) removeFile(fileName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.files[:0]
	for _, f := range m.files {
		if f.Name != fileName {
			kept = append(kept, f)
		}
	}
	m.files = kept
}

// Files returns a snapshot of the mirrored listing.
func (m *Materials) Files() []protocol.FilePayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]protocol.FilePayload(nil), m.files...)
}
