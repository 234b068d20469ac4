// Package session keeps the device owner's bearer token encrypted at rest.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/crypto"
)

// Key purposes for DeviceKey.
const (
	PurposeSession = "session"
	PurposeMedical = "medical"
)

const saltKey = "device:salt"

var (
	// ErrSessionExpired is returned when the stored token is past its exp claim.
	ErrSessionExpired = errors.New("session expired")
	// ErrMissingUserID is returned when neither the caller nor the token names a user.
	ErrMissingUserID = errors.New("user id is required")
	// ErrEmptyToken is returned by Save for an empty token.
	ErrEmptyToken = errors.New("token cannot be empty")
)

// Session is a decrypted session.
type Session struct {
	ExpiresAt time.Time // zero when the token carries no exp
	Token     string
	UserID    string
}

// Store seals tokens before they reach SessionStorage.
type Store struct {
	storage storage.SessionStorage
	sealer  *crypto.Sealer
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store. key must be crypto.KeySize bytes, usually from DeviceKey.
func NewStore(st storage.SessionStorage, key []byte, opts ...Option) (*Store, error) {
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create session sealer: %w", err)
	}

	s := &Store{
		storage: st,
		sealer:  sealer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save encrypts and stores the token. An empty userID is taken from the
// token's sub claim. Tokens that are not JWTs are stored without expiry.
func (s *Store) Save(ctx context.Context, token, userID string) (*Session, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	claims := parseClaims(token)
	if userID == "" && claims != nil {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, ErrMissingUserID
	}

	sess := &Session{Token: token, UserID: userID, ExpiresAt: expiry(claims)}
	if s.expired(sess.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	sealed, err := s.sealer.Seal([]byte(token))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt token: %w", err)
	}

	data := &storage.SessionData{
		SavedAt:     s.now().UTC(),
		UserID:      userID,
		SealedToken: sealed,
	}
	if !sess.ExpiresAt.IsZero() {
		data.ExpiresAt = sess.ExpiresAt.Unix()
	}

	if err := s.storage.SaveSession(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

// Load returns the decrypted session, storage.ErrSessionNotFound when
// logged out, or ErrSessionExpired.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	data, err := s.storage.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	plain, err := s.sealer.Open(data.SealedToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}

	sess := &Session{Token: string(plain), UserID: data.UserID}
	if claims := parseClaims(sess.Token); claims != nil {
		sess.ExpiresAt = expiry(claims)
	} else if data.ExpiresAt > 0 {
		sess.ExpiresAt = time.Unix(data.ExpiresAt, 0).UTC()
	}

	if s.expired(sess.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context) error {
	err := s.storage.DeleteSession(ctx)
	if err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		return err
	}
	return nil
}

func (s *Store) expired(at time.Time) bool {
	return !at.IsZero() && !s.now().Before(at)
}

// parseClaims reads the claims without verifying the signature; the
// backend verifies it. Returns nil for opaque tokens.
func parseClaims(token string) *jwt.RegisteredClaims {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

func expiry(claims *jwt.RegisteredClaims) time.Time {
	if claims == nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.UTC()
}

// DeviceKey derives a key for purpose from the device secret. The salt is
// generated on first use and kept in kv.
func DeviceKey(ctx context.Context, kv storage.KVStore, secret, purpose string) ([]byte, error) {
	salt, err := kv.Get(ctx, saltKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		salt, err = crypto.GenerateSaltBase64()
		if err != nil {
			return nil, err
		}
		if err := kv.Set(ctx, saltKey, salt); err != nil {
			return nil, fmt.Errorf("failed to persist device salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read device salt: %w", err)
	}

	return crypto.DeriveKeyFromBase64Salt(secret, purpose, salt)
}
