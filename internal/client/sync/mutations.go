package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/guardian/internal/client/api"
	"github.com/iudanet/guardian/internal/client/cache"
	"github.com/iudanet/guardian/internal/models"
	"github.com/iudanet/guardian/internal/validation"
)

// Contacts returns the cached contact list. An entry older than maxAge
// is still returned with stale=true; maxAge 0 never reports stale.
func (o *Orchestrator) Contacts(ctx context.Context, maxAge time.Duration) ([]models.Contact, bool, error) {
	contacts, stale, err := read[[]models.Contact](ctx, o.cache, models.EntityContacts, maxAge)
	if contacts == nil {
		contacts = []models.Contact{}
	}
	return contacts, stale, err
}

// Profile returns the cached profile, or nil when none is cached.
func (o *Orchestrator) Profile(ctx context.Context, maxAge time.Duration) (*models.UserProfile, bool, error) {
	return read[*models.UserProfile](ctx, o.cache, models.EntityProfile, maxAge)
}

// MedicalInfo returns the cached medical info, or nil when none is cached.
func (o *Orchestrator) MedicalInfo(ctx context.Context, maxAge time.Duration) (*models.MedicalInfo, bool, error) {
	return read[*models.MedicalInfo](ctx, o.cache, models.EntityMedical, maxAge)
}

func read[T any](ctx context.Context, c *cache.Cache, entity models.EntityType, maxAge time.Duration) (T, bool, error) {
	var zero T

	if maxAge > 0 {
		fresh, err := cache.Get[T](ctx, c, string(entity), maxAge)
		if err != nil {
			return zero, false, err
		}
		if fresh != nil {
			return fresh.Data, false, nil
		}
	}

	entry, err := cache.Get[T](ctx, c, string(entity), 0)
	if err != nil || entry == nil {
		return zero, false, err
	}
	return entry.Data, maxAge > 0, nil
}

// SaveContact creates (empty ID) or updates a contact.
// It returns the stored contact.
func (o *Orchestrator) SaveContact(ctx context.Context, token string, c models.Contact) (models.Contact, error) {
	c.Phone = validation.NormalizePhone(c.Phone)
	if err := validation.ValidateContact(c); err != nil {
		return c, err
	}

	kind := models.OperationUpdate
	if c.ID == "" {
		c.ID = uuid.NewString()
		kind = models.OperationCreate
	}

	err := o.mutate(ctx, token, models.EntityContacts, kind, c.ID, c, func(ctx context.Context) error {
		contacts, _, err := o.Contacts(ctx, 0)
		if err != nil {
			return err
		}
		replaced := false
		for i := range contacts {
			if contacts[i].ID == c.ID {
				contacts[i] = c
				replaced = true
			}
		}
		if !replaced {
			contacts = append(contacts, c)
		}
		_, err = cache.Set(ctx, o.cache, string(models.EntityContacts), contacts, false)
		return err
	})
	return c, err
}

// DeleteContact removes a contact locally and remotely.
func (o *Orchestrator) DeleteContact(ctx context.Context, token, id string) error {
	if id == "" {
		return validation.ErrEmptyID
	}

	return o.mutate(ctx, token, models.EntityContacts, models.OperationDelete, id, nil, func(ctx context.Context) error {
		contacts, _, err := o.Contacts(ctx, 0)
		if err != nil {
			return err
		}
		kept := contacts[:0]
		for _, c := range contacts {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		_, err = cache.Set(ctx, o.cache, string(models.EntityContacts), kept, false)
		return err
	})
}

// SaveProfile replaces the user profile.
func (o *Orchestrator) SaveProfile(ctx context.Context, token string, p models.UserProfile) error {
	if p.Phone != "" {
		p.Phone = validation.NormalizePhone(p.Phone)
		if err := validation.ValidatePhone(p.Phone); err != nil {
			return err
		}
	}
	return o.mutate(ctx, token, models.EntityProfile, models.OperationUpdate, "", p, func(ctx context.Context) error {
		_, err := cache.Set(ctx, o.cache, string(models.EntityProfile), &p, false)
		return err
	})
}

// SaveMedicalInfo replaces the medical info.
func (o *Orchestrator) SaveMedicalInfo(ctx context.Context, token string, m models.MedicalInfo) error {
	return o.mutate(ctx, token, models.EntityMedical, models.OperationUpdate, "", m, func(ctx context.Context) error {
		_, err := cache.Set(ctx, o.cache, string(models.EntityMedical), &m, false)
		return err
	})
}

// mutate writes the local change first, then delivers it directly when online
// with an empty queue, or enqueues it otherwise.
func (o *Orchestrator) mutate(
	ctx context.Context,
	token string,
	entity models.EntityType,
	kind models.OperationKind,
	entityID string,
	payload any,
	apply func(ctx context.Context) error,
) error {
	if token == "" {
		return ErrUnauthenticated
	}

	op := models.QueuedOperation{
		Kind:       kind,
		EntityType: entity,
		EntityID:   entityID,
		AuthToken:  token,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", entity, err)
		}
		op.Payload = raw
	}

	if err := apply(ctx); err != nil {
		return fmt.Errorf("apply local %s change: %w", entity, err)
	}

	if o.exec != nil && o.monitor.Status() {
		pending, err := o.queue.PendingCount(ctx)
		if err == nil && pending == 0 {
			execErr := o.exec.Execute(ctx, &op)
			if execErr == nil {
				o.markDelivered(ctx, entity, 0)
				return nil
			}
			if !api.IsTransient(execErr) {
				o.update(func(s *models.SyncState) {
					appendErrors(s, fmt.Sprintf("%s %s rejected: %v", entity, kind, execErr))
				})
				o.releaseLocalHold(context.WithoutCancel(ctx), entity)
				return fmt.Errorf("%s %s rejected: %w", entity, kind, execErr)
			}
			o.logger.Info().Err(execErr).Str("entity", string(entity)).Msg("delivery failed, queueing")
		}
	}

	queued, err := o.queue.Enqueue(ctx, op)
	if err != nil {
		return fmt.Errorf("queue %s change: %w", entity, err)
	}

	online := o.monitor.Status()
	o.logger.Debug().
		Str("op_id", queued.ID).
		Str("entity", string(entity)).
		Bool("online", online).
		Msg("mutation queued")

	if online {
		o.drains.Add(1)
		go func() {
			defer o.drains.Done()
			if _, err := o.queue.Drain(context.WithoutCancel(ctx)); err != nil {
				o.logger.Error().Err(err).Msg("background drain failed")
			}
		}()
	}

	return nil
}
