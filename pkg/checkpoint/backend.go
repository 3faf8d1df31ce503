package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Backend is the injected durability layer: one record per request
// identifier. Implementations must tolerate being swapped for an
// externally-backed store without the Store's callers noticing.
type Backend interface {
	Write(id string, data []byte) error
	Delete(id string) error
	// LoadAll returns every persisted record keyed by request identifier.
	LoadAll() (map[string][]byte, error)
}

// FileBackend persists one JSON file per request id under dir.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating checkpoint dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

// Write persists atomically via tmp file + rename so a crash mid-write never
// leaves a torn snapshot.
func (f *FileBackend) Write(id string, data []byte) error {
	path := f.path(id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (f *FileBackend) Delete(id string) error {
	err := os.Remove(f.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FileBackend) LoadAll() (map[string][]byte, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint dir: %w", err)
	}

	out := make(map[string][]byte)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading snapshot %s: %w", name, err)
		}
		out[strings.TrimSuffix(name, ".json")] = data
	}
	return out, nil
}
