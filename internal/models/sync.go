package models

import "time"

// EntityType identifies a synchronized entity.
type EntityType string

// Entity types kept in sync with the backend.
const (
	EntityContacts EntityType = "contacts"
	EntityProfile  EntityType = "profile"
	EntityMedical  EntityType = "medical_info"
)

// AllEntities lists every synchronized entity type.
var AllEntities = []EntityType{EntityContacts, EntityProfile, EntityMedical}

// Valid reports whether the entity type is known.
func (e EntityType) Valid() bool {
	switch e {
	case EntityContacts, EntityProfile, EntityMedical:
		return true
	}
	return false
}

// SyncState is the aggregate synchronization state published to the presentation layer.
type SyncState struct {
	LastSyncPerEntity     map[EntityType]time.Time `json:"last_sync_per_entity"`    // last successful sync per entity
	Errors                []string                 `json:"errors"`                  // accumulated sync errors
	PendingOperationCount int                      `json:"pending_operation_count"` // operations waiting in the durable queue
	IsOnline              bool                     `json:"is_online"`
	IsSyncing             bool                     `json:"is_syncing"`
}

// NewSyncState returns an empty state.
func NewSyncState() SyncState {
	return SyncState{
		LastSyncPerEntity: make(map[EntityType]time.Time),
		Errors:            []string{},
	}
}

// Clone returns a deep copy so subscribers never share maps or slices with the writer.
func (s SyncState) Clone() SyncState {
	out := s
	out.LastSyncPerEntity = make(map[EntityType]time.Time, len(s.LastSyncPerEntity))
	for k, v := range s.LastSyncPerEntity {
		out.LastSyncPerEntity[k] = v
	}
	out.Errors = append([]string{}, s.Errors...)
	return out
}
