package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/client/storage/boltdb"
	"github.com/iudanet/guardian/internal/client/storage/memory"
	"github.com/iudanet/guardian/internal/crypto"
)

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newBolt(t *testing.T) *boltdb.Storage {
	t.Helper()
	st, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testKey() []byte {
	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func newStore(t *testing.T, st storage.SessionStorage) *Store {
	t.Helper()
	s, err := NewStore(st, testKey(), WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return s
}

func signToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: sub}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func TestNewStore_InvalidKey(t *testing.T) {
	_, err := NewStore(newBolt(t), []byte("short"))
	assert.Error(t, err)
}

func TestSaveLoad_JWT(t *testing.T) {
	ctx := context.Background()
	st := newBolt(t)
	s := newStore(t, st)
	token := signToken(t, "user-42", testNow.Add(time.Hour))

	saved, err := s.Save(ctx, token, "")
	require.NoError(t, err)
	assert.Equal(t, "user-42", saved.UserID)
	assert.True(t, testNow.Add(time.Hour).Equal(saved.ExpiresAt))

	raw, err := st.GetSession(ctx)
	require.NoError(t, err)
	assert.NotContains(t, raw.SealedToken, token)
	assert.Equal(t, testNow.Add(time.Hour).Unix(), raw.ExpiresAt)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, loaded.Token)
	assert.Equal(t, "user-42", loaded.UserID)
}

func TestSave_ExplicitUserWins(t *testing.T) {
	s := newStore(t, newBolt(t))
	token := signToken(t, "from-token", time.Time{})

	saved, err := s.Save(context.Background(), token, "explicit")
	require.NoError(t, err)
	assert.Equal(t, "explicit", saved.UserID)
	assert.True(t, saved.ExpiresAt.IsZero())
}

func TestSave_OpaqueToken(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, newBolt(t))

	_, err := s.Save(ctx, "opaque-token", "")
	assert.ErrorIs(t, err, ErrMissingUserID)

	_, err = s.Save(ctx, "opaque-token", "u1")
	require.NoError(t, err)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", loaded.Token)
	assert.True(t, loaded.ExpiresAt.IsZero())
}

func TestSave_Rejects(t *testing.T) {
	s := newStore(t, newBolt(t))

	_, err := s.Save(context.Background(), "", "u1")
	assert.ErrorIs(t, err, ErrEmptyToken)

	_, err = s.Save(context.Background(), signToken(t, "u1", testNow.Add(-time.Minute)), "")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestLoad_Expired(t *testing.T) {
	ctx := context.Background()
	st := newBolt(t)
	s := newStore(t, st)
	_, err := s.Save(ctx, signToken(t, "u1", testNow.Add(time.Minute)), "")
	require.NoError(t, err)

	later, err := NewStore(st, testKey(), WithClock(func() time.Time { return testNow.Add(2 * time.Minute) }))
	require.NoError(t, err)

	_, err = later.Load(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestLoad_WrongKey(t *testing.T) {
	ctx := context.Background()
	st := newBolt(t)
	_, err := newStore(t, st).Save(ctx, "opaque", "u1")
	require.NoError(t, err)

	other := make([]byte, crypto.KeySize)
	s, err := NewStore(st, other)
	require.NoError(t, err)

	_, err = s.Load(ctx)
	assert.Error(t, err)
}

func TestLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, newBolt(t))

	_, err := s.Load(ctx)
	assert.True(t, errors.Is(err, storage.ErrSessionNotFound))

	_, err = s.Save(ctx, "opaque", "u1")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Delete(ctx))

	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestDeviceKey(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	k1, err := DeviceKey(ctx, kv, "secret", PurposeSession)
	require.NoError(t, err)
	assert.Len(t, k1, crypto.KeySize)

	salt, err := kv.Get(ctx, saltKey)
	require.NoError(t, err)
	assert.NotEmpty(t, salt)

	k2, err := DeviceKey(ctx, kv, "secret", PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := DeviceKey(ctx, kv, "secret", PurposeMedical)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	_, err = DeviceKey(ctx, kv, "", PurposeSession)
	assert.Error(t, err)
}
