package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreReplacesRows(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Save(ctx, sampleMessages()))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleMessages(), got)

	require.NoError(t, store.Save(ctx, sampleMessages()[1:]))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Text)

	assert.NoError(t, store.Ping(ctx))
}
