package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zhouzirui/sphere-relay/backend/internal/model/message"
)

// FileStore keeps the snapshot as an indented JSON array in a single file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore and ensures the parent directory exists.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("snapshot file path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("snapshot store: mkdir %s: %w", dir, err)
		}
	}
	return &FileStore{path: path}, nil
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Load(_ context.Context) ([]message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot store: read %s: %w", s.path, err)
	}

	var msgs []message.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return msgs, nil
}

// Save writes to a temporary sibling and renames it over the snapshot, so a
// crash mid-write never leaves a truncated file behind.
func (s *FileStore) Save(_ context.Context, msgs []message.Message) error {
	if msgs == nil {
		msgs = []message.Message{}
	}
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot store: marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("snapshot store: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("snapshot store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("snapshot store: rename: %w", err)
	}
	return nil
}

// Ping checks that the snapshot directory is still reachable.
func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("snapshot store: stat dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot store: %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
