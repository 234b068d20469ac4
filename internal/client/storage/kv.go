package storage

import "context"

//go:generate moq -out kvstore_mock.go . KVStore

// KVStore is the persistent key-value store every client component writes through.
// Set must be durable when it returns: a crash right after Set never loses the value.
type KVStore interface {
	// Get returns the stored value or ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Remove deletes key; removing a missing key is not an error
	Remove(ctx context.Context, key string) error

	// Keys lists keys starting with prefix in ascending order
	Keys(ctx context.Context, prefix string) ([]string, error)
}
