package componenttree

import (
	"os"
	"path/filepath"
)

// Storage is the injected persistence interface for the store's state. Blobs
// are opaque to implementations.
type Storage interface {
	Load() ([]byte, error)
	Save(blob []byte) error
}

// FileStorage persists state blobs to a single file.
type FileStorage struct {
	Path string
}

func (f FileStorage) Load() ([]byte, error) {
	blob, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return blob, err
}

func (f FileStorage) Save(blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return err
	}
	return os.WriteFile(f.Path, blob, 0644)
}

// MemoryStorage keeps state in memory, mainly for tests and one-shot runs.
type MemoryStorage struct {
	Blob []byte
}

func (m *MemoryStorage) Load() ([]byte, error) {
	return m.Blob, nil
}

func (m *MemoryStorage) Save(blob []byte) error {
	m.Blob = append(m.Blob[:0], blob...)
	return nil
}
