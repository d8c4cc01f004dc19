package attachment

import (
	"context"
	"time"
)

// Reasons a cleanup intent is recorded.
const (
	ReasonSuperseded   = "superseded"
	ReasonCleared      = "cleared"
	ReasonCompensation = "compensation"
)

// CleanupIntent is a store object that should no longer exist but could not be
// removed when its owner changed.
type CleanupIntent struct {
	ID        int64     `json:"id"`
	FileID    string    `json:"fileId"`
	OwnerKind string    `json:"ownerKind"`
	OwnerID   int64     `json:"ownerId"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IntentStore persists cleanup intents.
type IntentStore interface {
	Record(ctx context.Context, intent CleanupIntent) error
	// Pending returns unresolved intents with fewer than maxAttempts attempts,
	// oldest first.
	Pending(ctx context.Context, limit, maxAttempts int) ([]CleanupIntent, error)
	Resolve(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, cause error) error
}
