package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iudanet/guardian/internal/client/cache"
	"github.com/iudanet/guardian/internal/models"
)

// ErrPullSkipped is returned by a syncer that left the local copy in place
// because it holds undelivered changes. SyncAll counts it as neither a
// success nor a failure.
var ErrPullSkipped = errors.New("pull skipped, local changes not delivered")

// RemoteAPI reads entities from the backend.
type RemoteAPI interface {
	GetContacts(ctx context.Context, token string) ([]models.Contact, error)
	GetProfile(ctx context.Context, token string) (*models.UserProfile, error)
	GetMedicalInfo(ctx context.Context, token string) (*models.MedicalInfo, error)
}

// PendingChecker reports queued local changes, satisfied by *queue.Queue.
type PendingChecker interface {
	HasPending(ctx context.Context, entity models.EntityType) (bool, error)
}

// entitySyncer pulls the remote copy of one entity into the cache.
// Unsynced local changes win until the queue has delivered them.
type entitySyncer[T any] struct {
	fetch   func(ctx context.Context, token string) (T, error)
	cache   *cache.Cache
	pending PendingChecker
	logger  zerolog.Logger
	entity  models.EntityType
}

func (s *entitySyncer[T]) Entity() models.EntityType {
	return s.entity
}

func (s *entitySyncer[T]) Sync(ctx context.Context, token string) error {
	key := string(s.entity)

	hasPending, err := s.pending.HasPending(ctx, s.entity)
	if err != nil {
		return fmt.Errorf("check pending: %w", err)
	}
	if hasPending {
		s.logger.Debug().Str("entity", key).Msg("local changes pending, skipping pull")
		return ErrPullSkipped
	}

	meta, err := s.cache.Meta(ctx, key)
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}
	if meta != nil && !meta.Synced {
		s.logger.Debug().Str("entity", key).Msg("local copy not yet delivered, skipping pull")
		return ErrPullSkipped
	}

	remote, err := s.fetch(ctx, token)
	if err != nil {
		return err
	}

	changed, err := cache.Set(ctx, s.cache, key, remote, true)
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}

	s.logger.Debug().Str("entity", key).Bool("changed", changed).Msg("entity pulled")
	return nil
}

// NewEntitySyncers returns syncers for contacts, profile and medical info.
func NewEntitySyncers(remote RemoteAPI, c *cache.Cache, pending PendingChecker, logger zerolog.Logger) []EntitySyncer {
	return []EntitySyncer{
		&entitySyncer[[]models.Contact]{
			entity:  models.EntityContacts,
			fetch:   remote.GetContacts,
			cache:   c,
			pending: pending,
			logger:  logger,
		},
		&entitySyncer[*models.UserProfile]{
			entity:  models.EntityProfile,
			fetch:   remote.GetProfile,
			cache:   c,
			pending: pending,
			logger:  logger,
		},
		&entitySyncer[*models.MedicalInfo]{
			entity:  models.EntityMedical,
			fetch:   remote.GetMedicalInfo,
			cache:   c,
			pending: pending,
			logger:  logger,
		},
	}
}
