package roomclient

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/rx3lixir/studyhall/internal/protocol"
)

type fakeMaterialsAPI struct {
	mu       sync.Mutex
	listing  []protocol.FilePayload
	uploaded []string
	deleted  []string
}

func (f *fakeMaterialsAPI) ListMaterials(_ context.Context, _ string) ([]protocol.FilePayload, error) {
	return f.listing, nil
}

func (f *fakeMaterialsAPI) UploadMaterial(_ context.Context, _, fileName string, r io.Reader) (*protocol.FilePayload, error) {
	io.Copy(io.Discard, r)
	f.mu.Lock()
	f.uploaded = append(f.uploaded, fileName)
	f.mu.Unlock()
	return &protocol.FilePayload{Name: fileName, URL: "http://s3/" + fileName, Type: "text/plain"}, nil
}

func (f *fakeMaterialsAPI) DeleteMaterial(_ context.Context, _, fileName string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, fileName)
	f.mu.Unlock()
	return nil
}

func TestMaterialsUploadAppliesLocally(t *testing.T) {
	api := &fakeMaterialsAPI{}
	m := NewMaterials("AAAA1111", api)

	if _, err := m.Upload(context.Background(), "notes.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	files := m.Files()
	if len(files) != 1 || files[0].Name != "notes.txt" {
		t.Fatalf("files = %+v, want notes.txt", files)
	}

	// The broadcast echo of our own upload must not duplicate it.
	m.addFile(protocol.FilePayload{Name: "notes.txt", URL: "http://s3/notes.txt"})
	if got := len(m.Files()); got != 1 {
		t.Errorf("files after echo = %d, want 1", got)
	}
}

func TestMaterialsUploadRejectsDuplicateLocally(t *testing.T) {
	api := &fakeMaterialsAPI{}
	m := NewMaterials("AAAA1111", api)

	// Someone else already shared this name; the mirror knows.
	m.addFile(protocol.FilePayload{Name: "notes.pdf", URL: "http://s3/notes.pdf"})

	_, err := m.Upload(context.Background(), "notes.pdf", strings.NewReader("x"))
	if !errors.Is(err, ErrDuplicateFile) {
		t.Fatalf("Upload() error = %v, want ErrDuplicateFile", err)
	}

	api.mu.Lock()
	attempts := len(api.uploaded)
	api.mu.Unlock()
	if attempts != 0 {
		t.Errorf("duplicate upload reached the API %d time(s), want 0", attempts)
	}

	if got := len(m.Files()); got != 1 {
		t.Errorf("mirror size = %d after rejected upload, want 1", got)
	}
}

func TestMaterialsEventStream(t *testing.T) {
	m := NewMaterials("AAAA1111", &fakeMaterialsAPI{})

	m.addFile(protocol.FilePayload{Name: "a.pdf"})
	m.addFile(protocol.FilePayload{Name: "b.pdf"})
	m.removeFile("a.pdf")

	files := m.Files()
	if len(files) != 1 || files[0].Name != "b.pdf" {
		t.Errorf("files = %+v, want just b.pdf", files)
	}

	// Deleting something unknown is a no-op.
	m.removeFile("ghost.pdf")
	if got := len(m.Files()); got != 1 {
		t.Errorf("files after ghost delete = %d, want 1", got)
	}
}

func TestMaterialsRefresh(t *testing.T) {
	api := &fakeMaterialsAPI{
		listing: []protocol.FilePayload{{Name: "syllabus.pdf"}, {Name: "week1.md"}},
	}
	m := NewMaterials("AAAA1111", api)
	m.addFile(protocol.FilePayload{Name: "stale.txt"})

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	files := m.Files()
	if len(files) != 2 {
		t.Fatalf("files = %+v, want the server listing", files)
	}
}

func TestMaterialsDelete(t *testing.T) {
	api := &fakeMaterialsAPI{}
	m := NewMaterials("AAAA1111", api)
	m.addFile(protocol.FilePayload{Name: "notes.txt"})

	if err := m.Delete(context.Background(), "notes.txt"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if len(m.Files()) != 0 {
		t.Errorf("files = %+v, want empty", m.Files())
	}
	if len(api.deleted) != 1 || api.deleted[0] != "notes.txt" {
		t.Errorf("api deletions = %v", api.deleted)
	}
}
