package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UsageEventRepository defines the interface for persisting and querying raw
// usage events
type UsageEventRepository interface {
	// Save persists a new usage event
	Save(ctx context.Context, event *UsageEvent) error

	// FindByID retrieves a usage event by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*UsageEvent, error)

	// FindByClientEventID retrieves the event stored for a device under the
	// given client-supplied event ID. Returns shared.ErrNotFound when no
	// such event exists.
	FindByClientEventID(ctx context.Context, deviceID uuid.UUID, clientEventID string) (*UsageEvent, error)

	// FindNearDuplicate retrieves an event for the same device and app with
	// identical duration whose occurred-at falls within the given window of
	// occurredAt. Returns shared.ErrNotFound when none exists.
	FindNearDuplicate(ctx context.Context, deviceID, appID uuid.UUID, durationSeconds int, occurredAt time.Time, window time.Duration) (*UsageEvent, error)

	// FindOverlapping retrieves all events for the given devices whose
	// interval [occurredAt-duration, occurredAt] overlaps [start, end],
	// ordered by occurred-at ascending.
	FindOverlapping(ctx context.Context, deviceIDs []uuid.UUID, start, end time.Time) ([]*UsageEvent, error)

	// FindEndingWithin retrieves all events for the given devices whose
	// occurred-at instant falls inside [start, end], ordered by occurred-at
	// ascending. Used by hour-of-day bucketing, which attributes an event to
	// the hour it ended in without clipping.
	FindEndingWithin(ctx context.Context, deviceIDs []uuid.UUID, start, end time.Time) ([]*UsageEvent, error)
}

// DailySnapshotRepository defines the interface for persisting and querying
// device OS daily snapshots
type DailySnapshotRepository interface {
	// Upsert writes a snapshot, replacing any existing row for the same
	// (device, app, day) key. Last write wins; no history is retained.
	Upsert(ctx context.Context, snapshot *DailySnapshot) error

	// ExistsForDays reports whether any snapshot rows exist for the given
	// devices on any of the given day keys. Drives source selection.
	ExistsForDays(ctx context.Context, deviceIDs []uuid.UUID, days []string) (bool, error)

	// FindForDays retrieves all snapshot rows for the given devices on the
	// given day keys.
	FindForDays(ctx context.Context, deviceIDs []uuid.UUID, days []string) ([]*DailySnapshot, error)
}
