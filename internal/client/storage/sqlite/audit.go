package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iudanet/guardian/internal/client/storage"
	"github.com/iudanet/guardian/internal/models"
)

// SaveAlertOutcome appends an outcome to the audit log.
func (s *Storage) SaveAlertOutcome(ctx context.Context, outcome *models.AlertOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal alert outcome: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alert_outcomes
		 (alert_id, user_id, triggered_at, total_contacts_reached, any_succeeded, call_offered, outcome_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		outcome.AlertID,
		outcome.UserID,
		outcome.TriggeredAt.UnixMilli(),
		outcome.TotalContactsReached,
		outcome.AnySucceeded(),
		outcome.CallOffered,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save alert outcome: %w", err)
	}

	return nil
}

// ListAlertOutcomes returns up to limit outcomes, newest first.
func (s *Storage) ListAlertOutcomes(ctx context.Context, limit int) ([]*models.AlertOutcome, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome_json FROM alert_outcomes ORDER BY triggered_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	outcomes := []*models.AlertOutcome{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan alert outcome: %w", err)
		}
		var o models.AlertOutcome
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert outcome: %w", err)
		}
		outcomes = append(outcomes, &o)
	}

	return outcomes, rows.Err()
}

var (
	_ storage.KVStore      = (*Storage)(nil)
	_ storage.AuditStorage = (*Storage)(nil)
)
