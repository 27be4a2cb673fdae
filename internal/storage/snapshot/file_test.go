package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/sphere-relay/backend/internal/config"
	"github.com/zhouzirui/sphere-relay/backend/internal/model/message"
)

func sampleMessages() []message.Message {
	return []message.Message{
		{Text: "first", Timestamp: 1_700_000_000_000, ID: "01HF0000000000000000000001"},
		{Text: "second", Timestamp: 1_700_000_000_500, ID: "01HF0000000000000000000002"},
	}
}

func TestFileStoreMissingFileLoadsNothing(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "messages.json"))
	require.NoError(t, err)

	msgs, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, msgs)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "messages.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleMessages()))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleMessages(), got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "first", decoded[0]["text"])
	assert.Contains(t, decoded[0], "timestamp")
	assert.Contains(t, decoded[0], "id")
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "messages.json"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleMessages()))
	require.NoError(t, store.Save(ctx, sampleMessages()[1:]))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Text)

	require.NoError(t, store.Save(ctx, nil))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileStorePing(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "messages.json"))
	require.NoError(t, err)
	assert.NoError(t, store.Ping(context.Background()))
	assert.Equal(t, "file", store.Name())
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	p, err := Open(ctx, config.SnapshotConfig{Backend: config.BackendFile, Path: filepath.Join(t.TempDir(), "m.json")})
	require.NoError(t, err)
	assert.Equal(t, "file", p.Name())

	p, err = Open(ctx, config.SnapshotConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", p.Name())
	require.NoError(t, p.Close())

	_, err = Open(ctx, config.SnapshotConfig{Backend: "tape"})
	assert.Error(t, err)
}
