package models

import (
	"encoding/json"
	"time"
)

// OperationKind is the kind of a queued mutation.
type OperationKind string

// Mutation kinds.
const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
)

// Valid reports whether the kind is known.
func (k OperationKind) Valid() bool {
	switch k {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// QueuedOperation is a pending mutation owned by the durable operation queue.
type QueuedOperation struct {
	EnqueuedAt time.Time       `json:"enqueued_at"`
	ID         string          `json:"id"`                  // UUID of the operation
	Kind       OperationKind   `json:"kind"`                // create, update, delete
	EntityType EntityType      `json:"entity_type"`         // target entity
	EntityID   string          `json:"entity_id,omitempty"` // item id inside the entity (contact id), empty for singletons
	AuthToken  string          `json:"auth_token"`          // bearer token captured at enqueue time
	Payload    json.RawMessage `json:"payload,omitempty"`
	RetryCount int             `json:"retry_count"`
}

// DeadLetter records an operation removed from the active queue after a permanent failure.
type DeadLetter struct {
	FailedAt  time.Time       `json:"failed_at"`
	Error     string          `json:"error"`
	Operation QueuedOperation `json:"operation"`
}
