package usage

import (
	"time"

	"github.com/google/uuid"

	"github.com/screentime/backend/internal/domain/usage"
)

// RecordEventCommand is the input for ingesting one raw usage event.
type RecordEventCommand struct {
	DeviceIdentifier string
	PackageName      string
	AppName          string
	DurationSeconds  float64
	Timestamp        time.Time
	// EventID is the optional client-supplied idempotency key.
	EventID string
}

// RecordEventResult reports how an event was ingested.
type RecordEventResult struct {
	UsageEventID uuid.UUID `json:"usage_event_id"`
	// Duplicate is true when the command matched an already-stored event,
	// either by event ID or by the near-duplicate window. The stored event
	// wins; nothing new is written.
	Duplicate bool `json:"duplicate"`
	// Clamped is true when the reported duration exceeded the 24h cap and
	// was truncated.
	Clamped bool `json:"clamped"`
}

// SnapshotEntry is one per-app row of a snapshot sync batch.
type SnapshotEntry struct {
	PackageName  string
	AppName      string
	TotalMinutes int
	// Date optionally overrides the batch date for this entry.
	Date string
}

// SyncSnapshotsCommand is the input for ingesting a daily snapshot batch.
type SyncSnapshotsCommand struct {
	DeviceIdentifier string
	// Date is the batch day key; empty or malformed falls back to today.
	Date    string
	Entries []SnapshotEntry
}

// SyncSnapshotsResult reports the outcome of a snapshot batch.
type SyncSnapshotsResult struct {
	Date     string `json:"date"`
	Synced   int    `json:"synced"`
	Rejected int    `json:"rejected"`
}

// DailySummary is the per-app usage breakdown for one calendar day.
type DailySummary struct {
	Date         string               `json:"date"`
	TotalSeconds int64                `json:"total_seconds"`
	TotalMinutes float64              `json:"total_minutes"`
	Source       string               `json:"source"`
	Apps         []usage.AggregateRow `json:"apps"`
}

// RangeSummary is the per-app usage breakdown over a span of days. Weekly
// summaries are range summaries over seven days.
type RangeSummary struct {
	StartDate    string               `json:"start_date"`
	EndDate      string               `json:"end_date"`
	TotalSeconds int64                `json:"total_seconds"`
	TotalMinutes float64              `json:"total_minutes"`
	Source       string               `json:"source"`
	Apps         []usage.AggregateRow `json:"apps"`
}
