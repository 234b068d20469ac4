package cli

import (
	"fmt"
	"time"

	"github.com/iudanet/guardian/internal/client/api"
)

func onlineLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}

func staleNote(stale bool) string {
	if stale {
		return " (cached copy, may be out of date)"
	}
	return ""
}

// saveError wraps a failed mutation, pointing at login when the backend
// rejected the session.
func saveError(action string, err error) error {
	if api.IsUnauthorized(err) {
		return fmt.Errorf("failed to %s: %w (session rejected, run 'guardian login')", action, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
