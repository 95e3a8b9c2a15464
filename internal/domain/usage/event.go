package usage

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/screentime/backend/internal/domain/shared"
)

// MaxEventDurationSeconds caps a single reported foreground interval at 24
// hours. Longer values are treated as client-side aggregation artifacts and
// clamped rather than rejected, so retrying devices still get an ack.
const MaxEventDurationSeconds = 86400

// DedupWindow is the occurred-at tolerance within which two otherwise
// identical events without a client event ID are collapsed. It absorbs clock
// jitter across retried sync batches.
const DedupWindow = 2 * time.Second

// UsageEvent is an immutable record of one observed foreground interval,
// ending at OccurredAt and lasting DurationSeconds. Corrections are made with
// new events; stored events are never mutated.
type UsageEvent struct {
	shared.BaseEntity
	DeviceID        uuid.UUID
	AppID           uuid.UUID
	DurationSeconds int
	OccurredAt      time.Time
	// ClientEventID is the optional client-supplied idempotency key, unique
	// per device.
	ClientEventID string
}

// NewUsageEvent creates a usage event. The raw duration is rounded to whole
// seconds and must be positive; durations above MaxEventDurationSeconds are
// clamped and reported via the second return value.
func NewUsageEvent(deviceID, appID uuid.UUID, rawDurationSeconds float64, occurredAt time.Time, clientEventID string) (*UsageEvent, bool, error) {
	if deviceID == uuid.Nil {
		return nil, false, shared.NewDomainError("INVALID_INPUT", "Device ID cannot be empty")
	}
	if appID == uuid.Nil {
		return nil, false, shared.NewDomainError("INVALID_INPUT", "App ID cannot be empty")
	}

	duration := int(math.Round(rawDurationSeconds))
	if duration <= 0 {
		return nil, false, shared.ErrInvalidDuration
	}

	clamped := false
	if duration > MaxEventDurationSeconds {
		duration = MaxEventDurationSeconds
		clamped = true
	}

	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return &UsageEvent{
		BaseEntity:      shared.NewBaseEntityAt(occurredAt),
		DeviceID:        deviceID,
		AppID:           appID,
		DurationSeconds: duration,
		OccurredAt:      occurredAt,
		ClientEventID:   clientEventID,
	}, clamped, nil
}

// Interval returns the instant range the event covers: it starts
// DurationSeconds before OccurredAt and ends at OccurredAt.
func (e *UsageEvent) Interval() (start, end time.Time) {
	return e.OccurredAt.Add(-time.Duration(e.DurationSeconds) * time.Second), e.OccurredAt
}

// ClippedSeconds returns how many seconds of this event fall inside the
// given instant range.
func (e *UsageEvent) ClippedSeconds(rangeStart, rangeEnd time.Time) int {
	return ClipToRange(e.OccurredAt, e.DurationSeconds, rangeStart, rangeEnd)
}

// IsNearDuplicateOf reports whether this event and other describe the same
// observation from the same device: same app, same duration, and occurred-at
// instants within DedupWindow of each other.
func (e *UsageEvent) IsNearDuplicateOf(other *UsageEvent) bool {
	if other == nil {
		return false
	}
	if e.DeviceID != other.DeviceID || e.AppID != other.AppID || e.DurationSeconds != other.DurationSeconds {
		return false
	}
	gap := e.OccurredAt.Sub(other.OccurredAt)
	if gap < 0 {
		gap = -gap
	}
	return gap <= DedupWindow
}
