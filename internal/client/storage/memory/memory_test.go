package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/guardian/internal/client/storage"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "p:2", "two"))
	require.NoError(t, s.Set(ctx, "p:1", "one"))
	require.NoError(t, s.Set(ctx, "q:1", "other"))

	keys, err := s.Keys(ctx, "p:")
	require.NoError(t, err)
	assert.Equal(t, []string{"p:1", "p:2"}, keys)

	require.NoError(t, s.Remove(ctx, "p:1"))
	require.NoError(t, s.Remove(ctx, "p:1"))
	_, err = s.Get(ctx, "p:1")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}
