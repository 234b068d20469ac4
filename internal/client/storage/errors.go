package storage

import "errors"

// Common client storage errors
var (
	// ErrKeyNotFound indicates that a key does not exist in the KV store
	ErrKeyNotFound = errors.New("key not found")

	// ErrSessionNotFound indicates that no session is stored
	ErrSessionNotFound = errors.New("session not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
