// Package snapshot persists the relay's active message list so a restarted
// process can resume where it left off. Every backend stores the complete
// list and overwrites it on each save.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/zhouzirui/sphere-relay/backend/internal/config"
	"github.com/zhouzirui/sphere-relay/backend/internal/model/message"
)

// ErrCorrupt marks a snapshot that exists but cannot be decoded.
var ErrCorrupt = errors.New("snapshot corrupt")

// Persister saves and restores the full message list.
type Persister interface {
	// Load returns the stored list, or nil without error when nothing was saved yet.
	Load(ctx context.Context) ([]message.Message, error)
	// Save replaces the stored list with msgs.
	Save(ctx context.Context, msgs []message.Message) error
	Ping(ctx context.Context) error
	Name() string
	Close() error
}

// Open builds the backend selected by cfg.
func Open(ctx context.Context, cfg config.SnapshotConfig) (Persister, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Path)
	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.RedisKey)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}
