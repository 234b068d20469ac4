package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/client/storage/memory"
	"github.com/iudanet/guardian/internal/crypto"
	"github.com/iudanet/guardian/internal/models"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(t *testing.T, version int, opts ...Option) (*Cache, *memory.Store, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.New()
	opts = append([]Option{WithClock(clk.now)}, opts...)
	return New(store, version, opts...), store, clk
}

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c, _, clk := newTestCache(t, 1)

	contacts := []models.Contact{{ID: "c1", Name: "Ann", Phone: "+15550001"}}
	changed, err := Set(ctx, c, "contacts", contacts, false)
	require.NoError(t, err)
	assert.True(t, changed)

	entry, err := Get[[]models.Contact](ctx, c, "contacts", 0)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, contacts, entry.Data)
	assert.Equal(t, 1, entry.Version)
	assert.False(t, entry.Synced)
	assert.Equal(t, clk.t, entry.CapturedAt)

	hash, err := crypto.ContentHash(contacts)
	require.NoError(t, err)
	assert.Equal(t, hash, entry.ContentHash)
}

func TestCache_Miss(t *testing.T) {
	c, _, _ := newTestCache(t, 1)

	entry, err := Get[models.UserProfile](context.Background(), c, "profile", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCache_VersionMismatchIsMiss(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	old := New(store, 1)
	_, err := Set(ctx, old, "profile", models.UserProfile{FullName: "Ann"}, true)
	require.NoError(t, err)

	current := New(store, 2)
	entry, err := Get[models.UserProfile](ctx, current, "profile", 0)
	require.NoError(t, err)
	assert.Nil(t, entry, "version bump must read as a cold cache even without maxAge")

	meta, err := current.Meta(ctx, "profile")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestCache_Staleness(t *testing.T) {
	ctx := context.Background()
	c, _, clk := newTestCache(t, 1)

	_, err := Set(ctx, c, "profile", models.UserProfile{FullName: "Ann"}, true)
	require.NoError(t, err)

	clk.advance(10 * time.Minute)

	entry, err := Get[models.UserProfile](ctx, c, "profile", 5*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, entry, "stale entry")

	entry, err = Get[models.UserProfile](ctx, c, "profile", 15*time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, entry, "caller with a looser tolerance still sees it")

	entry, err = Get[models.UserProfile](ctx, c, "profile", 0)
	require.NoError(t, err)
	assert.NotNil(t, entry, "no maxAge disables the check")
}

func TestCache_NoOpWrite(t *testing.T) {
	ctx := context.Background()
	c, _, clk := newTestCache(t, 1)
	profile := models.UserProfile{FullName: "Ann"}

	changed, err := Set(ctx, c, "profile", profile, true)
	require.NoError(t, err)
	require.True(t, changed)
	first := clk.t

	clk.advance(time.Minute)
	changed, err = Set(ctx, c, "profile", profile, true)
	require.NoError(t, err)
	assert.False(t, changed)

	entry, err := Get[models.UserProfile](ctx, c, "profile", 0)
	require.NoError(t, err)
	assert.Equal(t, first, entry.CapturedAt, "no-op write keeps the capture time")

	changed, err = Set(ctx, c, "profile", profile, false)
	require.NoError(t, err)
	assert.True(t, changed, "synced flag change is a real write")
}

func TestCache_MarkSynced(t *testing.T) {
	ctx := context.Background()
	c, _, clk := newTestCache(t, 1)

	_, err := Set(ctx, c, "contacts", []models.Contact{{ID: "c1"}}, false)
	require.NoError(t, err)
	captured := clk.t

	clk.advance(time.Minute)
	require.NoError(t, c.MarkSynced(ctx, "contacts"))
	require.NoError(t, c.MarkSynced(ctx, "missing"))

	meta, err := c.Meta(ctx, "contacts")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.True(t, meta.Synced)
	assert.Equal(t, captured, meta.CapturedAt)
}

func TestCache_RemoveAndClearAll(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCache(t, 1)

	require.NoError(t, store.Set(ctx, "session:other", "kept"))
	for _, key := range []string{"contacts", "profile", "medical_info"} {
		_, err := Set(ctx, c, key, key, true)
		require.NoError(t, err)
	}

	require.NoError(t, c.Remove(ctx, "contacts"))
	entry, err := Get[string](ctx, c, "contacts", 0)
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, c.ClearAll(ctx))
	keys, err := store.Keys(ctx, keyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)

	v, err := store.Get(ctx, "session:other")
	require.NoError(t, err)
	assert.Equal(t, "kept", v)
}

func TestCache_Sealed(t *testing.T) {
	ctx := context.Background()
	sealer, err := crypto.NewSealer(make([]byte, crypto.KeySize))
	require.NoError(t, err)
	c, store, _ := newTestCache(t, 1, WithSealer(sealer))

	info := models.MedicalInfo{BloodType: "O-", Allergies: []string{"penicillin"}}
	_, err = Set(ctx, c, "medical_info", info, false)
	require.NoError(t, err)

	raw, err := store.Get(ctx, keyPrefix+"medical_info")
	require.NoError(t, err)
	assert.NotContains(t, raw, "penicillin")

	entry, err := Get[models.MedicalInfo](ctx, c, "medical_info", 0)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, info, entry.Data)

	unsealed := New(store, 1)
	entry, err = Get[models.MedicalInfo](ctx, unsealed, "medical_info", 0)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCache_UndecodableIsMiss(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCache(t, 1)

	require.NoError(t, store.Set(ctx, keyPrefix+"profile", "{not json"))
	entry, err := Get[models.UserProfile](ctx, c, "profile", 0)
	require.NoError(t, err)
	assert.Nil(t, entry)

	_, err = Set(ctx, c, "profile", "a string, not a profile", true)
	require.NoError(t, err)
	entry, err = Get[models.UserProfile](ctx, c, "profile", 0)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCache_StoreError(t *testing.T) {
	boom := errors.New("disk failure")
	store := &storage.KVStoreMock{
		GetFunc: func(ctx context.Context, key string) (string, error) { return "", boom },
	}
	c := New(store, 1)

	_, err := Get[string](context.Background(), c, "k", 0)
	assert.ErrorIs(t, err, boom)

	_, err = Set(context.Background(), c, "k", "v", false)
	assert.ErrorIs(t, err, boom)
}
