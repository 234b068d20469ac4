package storage

import (
	"context"
	"time"
)

// SessionStorage persists the authenticated session of the device owner.
// It stores data as-is; token encryption happens in the session package.
type SessionStorage interface {
	// SaveSession stores the session, replacing the previous one
	SaveSession(ctx context.Context, s *SessionData) error

	// GetSession returns the stored session or ErrSessionNotFound
	GetSession(ctx context.Context) (*SessionData, error)

	// DeleteSession removes the stored session (logout)
	DeleteSession(ctx context.Context) error
}

// SessionData is the persisted session.
// SealedToken holds the bearer token encrypted with the device key.
type SessionData struct {
	SavedAt     time.Time `json:"saved_at"`
	UserID      string    `json:"user_id"`
	SealedToken string    `json:"sealed_token"`
	ExpiresAt   int64     `json:"expires_at"` // unix seconds, 0 when the token carries no exp
}
