package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnsupportedMutation is returned when a mutation type has no mapping
// on the requested path.
var ErrUnsupportedMutation = errors.New("unsupported mutation type")

// MutationType is the kind of change a mutation carries
type MutationType string

const (
	MutationCreate  MutationType = "create"
	MutationUpdate  MutationType = "update"
	MutationDelete  MutationType = "delete"
	MutationUnknown MutationType = "unknown"
)

// ParseMutationType parses a mutation type name, case-insensitively.
// Unrecognised names map to MutationUnknown.
func ParseMutationType(s string) MutationType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create", "add":
		return MutationCreate
	case "update", "edit":
		return MutationUpdate
	case "delete", "remove":
		return MutationDelete
	default:
		return MutationUnknown
	}
}

// SyncStatus tracks a mutation through the push queue
type SyncStatus string

const (
	SyncPending    SyncStatus = "pending"
	SyncInProgress SyncStatus = "in_progress"
	SyncCompleted  SyncStatus = "completed"
	SyncFailed     SyncStatus = "failed"
)

// IsValidSyncStatus checks if a sync status is valid
func IsValidSyncStatus(s SyncStatus) bool {
	switch s {
	case SyncPending, SyncInProgress, SyncCompleted, SyncFailed:
		return true
	}
	return false
}

// LOIMutation is a pending local change to a location of interest
type LOIMutation struct {
	ID              string        `json:"id"`
	Type            MutationType  `json:"type"`
	SyncStatus      SyncStatus    `json:"sync_status"`
	SurveyID        string        `json:"survey_id"`
	LOIID           string        `json:"loi_id"`
	JobID           string        `json:"job_id"`
	UserID          string        `json:"user_id"`
	ClientTimestamp time.Time     `json:"client_timestamp"`
	RetryCount      int           `json:"retry_count"`
	LastError       string        `json:"last_error,omitempty"`
	Location        OptionalPoint `json:"location"`
	PolygonVertices []Point       `json:"polygon_vertices"`
	SyncedAt        *time.Time    `json:"synced_at,omitempty"`
}

// UnsupportedMutationError wraps ErrUnsupportedMutation with the offending type
func UnsupportedMutationError(t MutationType) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedMutation, t)
}
