package prefs

import (
	"os"
	"path/filepath"
	"sync"
)

// Backend is the capability-checked persistence surface: three independent
// string-keyed entries, each holding one JSON document. Implementations are
// selected once at startup; callers never probe for storage availability.
type Backend interface {
	// Get returns the stored document for key, or false if absent.
	Get(key string) ([]byte, bool)
	// Set stores the document. Persistence is best-effort; an error means
	// the write was lost, not that the caller should fail.
	Set(key string, value []byte) error
	// Remove deletes the entry. Removing an absent key is a no-op.
	Remove(key string)
}

// FileBackend persists each key as a JSON file under a data directory.
// Writes go through a temp file and rename so a crash never leaves a
// half-written document behind.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the data directory if needed. An error here means
// the environment has no writable storage; the caller falls back to the
// in-memory backend and the app keeps working with transient state.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (b *FileBackend) Set(key string, value []byte) error {
	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), b.path(key))
}

func (b *FileBackend) Remove(key string) {
	os.Remove(b.path(key))
}

// MemoryBackend keeps entries in a map. Used when no writable disk is
// available, and throughout the tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(key string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.entries[key]
	return value, ok
}

func (b *MemoryBackend) Set(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	b.entries[key] = stored
	return nil
}

func (b *MemoryBackend) Remove(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
}
