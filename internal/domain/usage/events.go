package usage

import (
	"github.com/google/uuid"
	"github.com/screentime/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeUsageEvent = "UsageEvent"

// Event type constants
const (
	EventTypeUsageRecorded   = "usage.event_recorded"
	EventTypeSnapshotsSynced = "usage.snapshots_synced"
)

// UsageRecordedEvent is published after a raw usage event is stored.
type UsageRecordedEvent struct {
	shared.BaseDomainEvent
	UsageEventID    uuid.UUID `json:"usage_event_id"`
	AppID           uuid.UUID `json:"app_id"`
	DurationSeconds int       `json:"duration_seconds"`
	Clamped         bool      `json:"clamped,omitempty"`
}

// NewUsageRecordedEvent creates a new UsageRecordedEvent
func NewUsageRecordedEvent(event *UsageEvent, clamped bool) *UsageRecordedEvent {
	return &UsageRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUsageRecorded, AggregateTypeUsageEvent, event.ID, event.DeviceID),
		UsageEventID:    event.ID,
		AppID:           event.AppID,
		DurationSeconds: event.DurationSeconds,
		Clamped:         clamped,
	}
}

// SnapshotsSyncedEvent is published after a snapshot batch is processed.
type SnapshotsSyncedEvent struct {
	shared.BaseDomainEvent
	Day      string `json:"day"`
	Synced   int    `json:"synced"`
	Rejected int    `json:"rejected"`
}

// NewSnapshotsSyncedEvent creates a new SnapshotsSyncedEvent
func NewSnapshotsSyncedEvent(deviceID uuid.UUID, day string, synced, rejected int) *SnapshotsSyncedEvent {
	return &SnapshotsSyncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSnapshotsSynced, AggregateTypeUsageEvent, deviceID, deviceID),
		Day:             day,
		Synced:          synced,
		Rejected:        rejected,
	}
}
