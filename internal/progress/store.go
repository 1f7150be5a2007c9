package progress

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the checkpoint of a historical run.
type Store interface {
	// Load returns nil, nil when no checkpoint exists.
	Load() (*Checkpoint, error)
	Save(c *Checkpoint) error
	Clear() error
}

// FileStore keeps the checkpoint in a single JSON file, replaced atomically on every save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store writing to path. The parent directory is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the checkpoint file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the checkpoint.
func (s *FileStore) Load() (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &CheckpointError{Op: "read", Path: s.path, Err: err}
	}
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &CheckpointError{Op: "decode", Path: s.path, Err: err}
	}
	return &c, nil
}

// Save writes the checkpoint to a temporary file, syncs it and renames it over the old one,
// so a crash leaves either the previous or the new checkpoint.
func (s *FileStore) Save(c *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return &CheckpointError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &CheckpointError{Op: "write", Path: s.path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &CheckpointError{Op: "write", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &CheckpointError{Op: "write", Path: s.path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &CheckpointError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &CheckpointError{Op: "rename", Path: s.path, Err: err}
	}
	return nil
}

// Clear removes the checkpoint. A missing file is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &CheckpointError{Op: "remove", Path: s.path, Err: err}
	}
	return nil
}

// MemoryStore keeps the checkpoint in memory. It backs dry runs and tests.
type MemoryStore struct {
	mu sync.Mutex
	c  *Checkpoint
}

// Load returns a copy of the stored checkpoint.
func (s *MemoryStore) Load() (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return nil, nil
	}
	c := s.c.Clone()
	return &c, nil
}

// Save stores a copy of c.
func (s *MemoryStore) Save(c *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c.Clone()
	s.c = &cp
	return nil
}

// Clear drops the stored checkpoint.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = nil
	return nil
}
