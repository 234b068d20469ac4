// Package cache stores typed values with a schema version, content hash
// and capture time on top of the persistent key-value store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/crypto"
)

const keyPrefix = "cache:"

// Entry is a decoded cache entry.
type Entry[T any] struct {
	CapturedAt  time.Time
	Data        T
	ContentHash string
	Version     int
	Synced      bool
}

// Meta describes an entry without decoding its payload.
type Meta struct {
	CapturedAt  time.Time `json:"captured_at"`
	ContentHash string    `json:"content_hash"`
	Version     int       `json:"version"`
	Synced      bool      `json:"synced"`
}

type record struct {
	Meta
	Data   json.RawMessage `json:"data,omitempty"`
	Sealed string          `json:"sealed,omitempty"` // AES-GCM sealed data when a sealer is set
}

// Cache is a versioned cache. Entries written under another schema
// version read as misses.
type Cache struct {
	store   storage.KVStore
	sealer  *crypto.Sealer
	now     func() time.Time
	logger  zerolog.Logger
	version int
	mu      sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithSealer encrypts stored payloads.
func WithSealer(s *crypto.Sealer) Option {
	return func(c *Cache) { c.sealer = s }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates a cache expecting schema version.
func New(store storage.KVStore, version int, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		version: version,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Version returns the expected schema version.
func (c *Cache) Version() int {
	return c.version
}

// Set stores value under key. A write with the same content hash and synced
// flag as the stored entry is a no-op and reports changed=false.
func Set[T any](ctx context.Context, c *Cache, key string, value T, synced bool) (bool, error) {
	hash, err := crypto.ContentHash(value)
	if err != nil {
		return false, fmt.Errorf("hash %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, err := c.load(ctx, key)
	if err != nil {
		return false, err
	}
	if prev != nil && prev.Version == c.version && prev.ContentHash == hash && prev.Synced == synced {
		return false, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", key, err)
	}

	rec := record{
		Meta: Meta{
			CapturedAt:  c.now().UTC(),
			ContentHash: hash,
			Version:     c.version,
			Synced:      synced,
		},
	}
	if c.sealer != nil {
		if rec.Sealed, err = c.sealer.Seal(data); err != nil {
			return false, fmt.Errorf("seal %s: %w", key, err)
		}
	} else {
		rec.Data = data
	}

	if err := c.save(ctx, key, &rec); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the entry under key, or nil when it is missing, written under
// another schema version, older than maxAge, or undecodable.
// maxAge 0 disables the staleness check.
func Get[T any](ctx context.Context, c *Cache, key string, maxAge time.Duration) (*Entry[T], error) {
	c.mu.Lock()
	rec, err := c.load(ctx, key)
	c.mu.Unlock()
	if err != nil || rec == nil {
		return nil, err
	}

	if rec.Version != c.version {
		c.logger.Debug().Str("key", key).Int("stored", rec.Version).Int("want", c.version).Msg("cache version mismatch")
		return nil, nil
	}
	if maxAge > 0 && c.now().Sub(rec.CapturedAt) > maxAge {
		return nil, nil
	}

	data := []byte(rec.Data)
	if rec.Sealed != "" {
		if c.sealer == nil {
			c.logger.Warn().Str("key", key).Msg("sealed cache entry without sealer")
			return nil, nil
		}
		if data, err = c.sealer.Open(rec.Sealed); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cannot open sealed cache entry")
			return nil, nil
		}
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cannot decode cache entry")
		return nil, nil
	}

	return &Entry[T]{
		Data:        value,
		Version:     rec.Version,
		ContentHash: rec.ContentHash,
		CapturedAt:  rec.CapturedAt,
		Synced:      rec.Synced,
	}, nil
}

// Meta returns entry metadata, or nil on a miss or version mismatch.
func (c *Cache) Meta(ctx context.Context, key string) (*Meta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.load(ctx, key)
	if err != nil || rec == nil || rec.Version != c.version {
		return nil, err
	}
	meta := rec.Meta
	return &meta, nil
}

// MarkSynced flags the entry as synced without touching its data or capture time.
// A missing entry is ignored.
func (c *Cache) MarkSynced(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.load(ctx, key)
	if err != nil || rec == nil || rec.Synced {
		return err
	}
	rec.Synced = true
	return c.save(ctx, key, rec)
}

// Remove deletes the entry under key.
func (c *Cache) Remove(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Remove(ctx, keyPrefix+key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// ClearAll deletes every cache entry.
func (c *Cache) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.store.Keys(ctx, keyPrefix)
	if err != nil {
		return fmt.Errorf("list cache keys: %w", err)
	}
	for _, k := range keys {
		if err := c.store.Remove(ctx, k); err != nil {
			return fmt.Errorf("remove %s: %w", strings.TrimPrefix(k, keyPrefix), err)
		}
	}
	return nil
}

func (c *Cache) load(ctx context.Context, key string) (*record, error) {
	raw, err := c.store.Get(ctx, keyPrefix+key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// unreadable envelope reads as a miss
		c.logger.Warn().Err(err).Str("key", key).Msg("corrupt cache entry")
		return nil, nil
	}
	return &rec, nil
}

func (c *Cache) save(ctx context.Context, key string, rec *record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", key, err)
	}
	if err := c.store.Set(ctx, keyPrefix+key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
