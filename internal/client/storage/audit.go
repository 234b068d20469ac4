package storage

import (
	"context"

	"github.com/iudanet/guardian/internal/models"
)

//go:generate moq -out auditstorage_mock.go . AuditStorage

// AuditStorage keeps an append-only history of dispatched emergency alerts.
type AuditStorage interface {
	// SaveAlertOutcome records an outcome; outcomes are never updated afterwards
	SaveAlertOutcome(ctx context.Context, outcome *models.AlertOutcome) error

	// ListAlertOutcomes returns the most recent outcomes first
	ListAlertOutcomes(ctx context.Context, limit int) ([]*models.AlertOutcome, error)
}
