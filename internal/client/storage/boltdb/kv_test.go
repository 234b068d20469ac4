package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/guardian/internal/client/storage"
)

func TestKV_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "queue:pending", `[{"id":"1"}]`))

	value, err := store.Get(ctx, "queue:pending")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, value)

	require.NoError(t, store.Set(ctx, "queue:pending", `[]`))
	value, err = store.Get(ctx, "queue:pending")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)

	require.NoError(t, store.Remove(ctx, "queue:pending"))
	_, err = store.Get(ctx, "queue:pending")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	assert.NoError(t, store.Remove(ctx, "queue:pending"), "removing a missing key is a no-op")
}

func TestKV_Keys(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	for _, k := range []string{"cache:contacts", "cache:profile", "queue:pending", "cache:medical_info"} {
		require.NoError(t, store.Set(ctx, k, "v"))
	}

	keys, err := store.Keys(ctx, "cache:")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache:contacts", "cache:medical_info", "cache:profile"}, keys)

	keys, err = store.Keys(ctx, "nothing:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestKV_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "location:queue", `[{"latitude":1}]`))
	require.NoError(t, store.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	value, err := reopened.Get(ctx, "location:queue")
	require.NoError(t, err)
	assert.Equal(t, `[{"latitude":1}]`, value)
}

func TestKV_Closed(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.Set(ctx, "k", "v"), storage.ErrStorageClosed)
	assert.ErrorIs(t, store.Remove(ctx, "k"), storage.ErrStorageClosed)
	_, err = store.Keys(ctx, "")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
