package usage

import (
	"time"

	"github.com/google/uuid"
	"github.com/screentime/backend/internal/domain/shared"
)

// MaxSnapshotMinutes is the largest per-app daily total a snapshot may carry
// (one full day).
const MaxSnapshotMinutes = 1440

// SnapshotSourceTag marks snapshot rows as produced by the device OS
// usage-stats API.
const SnapshotSourceTag = "queryUsageStats"

// DailySnapshot is an authoritative absolute per-app total for one calendar
// day, reported directly by the device OS. Unique per (device, app, day);
// each sync overwrites the previous value for that key.
type DailySnapshot struct {
	shared.BaseEntity
	DeviceID     uuid.UUID
	AppID        uuid.UUID
	Day          string // YYYY-MM-DD in the fixed-offset calendar
	TotalMinutes int
	Source       string
	SyncedAt     time.Time
}

// NewDailySnapshot creates a snapshot row, clamping the reported minutes into
// [0, MaxSnapshotMinutes]. The day key must already be validated by the
// caller.
func NewDailySnapshot(deviceID, appID uuid.UUID, day string, totalMinutes int, syncedAt time.Time) (*DailySnapshot, error) {
	if deviceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Device ID cannot be empty")
	}
	if appID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "App ID cannot be empty")
	}
	if !IsValidDateKey(day) {
		return nil, shared.ErrInvalidDate
	}

	if totalMinutes < 0 {
		totalMinutes = 0
	}
	if totalMinutes > MaxSnapshotMinutes {
		totalMinutes = MaxSnapshotMinutes
	}

	return &DailySnapshot{
		BaseEntity:   shared.NewBaseEntityAt(syncedAt),
		DeviceID:     deviceID,
		AppID:        appID,
		Day:          day,
		TotalMinutes: totalMinutes,
		Source:       SnapshotSourceTag,
		SyncedAt:     syncedAt,
	}, nil
}

// IsEmpty reports whether the snapshot carries no usage. Empty snapshots are
// dropped at ingestion rather than stored.
func (s *DailySnapshot) IsEmpty() bool {
	return s.TotalMinutes == 0
}
