package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/usage"
)

// DailySnapshotModel is the GORM model for device OS daily snapshots
type DailySnapshotModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeviceID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_daily_snapshots_key,priority:1"`
	AppID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_daily_snapshots_key,priority:2"`
	Day          string    `gorm:"type:varchar(10);not null;uniqueIndex:uq_daily_snapshots_key,priority:3;index"`
	TotalMinutes int       `gorm:"not null"`
	Source       string    `gorm:"type:varchar(50);not null"`
	SyncedAt     time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (DailySnapshotModel) TableName() string {
	return "daily_snapshots"
}

// ToEntity converts the model to a domain entity
func (m *DailySnapshotModel) ToEntity() *usage.DailySnapshot {
	return &usage.DailySnapshot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		DeviceID:     m.DeviceID,
		AppID:        m.AppID,
		Day:          m.Day,
		TotalMinutes: m.TotalMinutes,
		Source:       m.Source,
		SyncedAt:     m.SyncedAt,
	}
}

// DailySnapshotModelFromEntity creates a model from a domain entity
func DailySnapshotModelFromEntity(e *usage.DailySnapshot) *DailySnapshotModel {
	return &DailySnapshotModel{
		ID:           e.ID,
		DeviceID:     e.DeviceID,
		AppID:        e.AppID,
		Day:          e.Day,
		TotalMinutes: e.TotalMinutes,
		Source:       e.Source,
		SyncedAt:     e.SyncedAt,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// DailySnapshotRepository implements the usage.DailySnapshotRepository interface
type DailySnapshotRepository struct {
	db *gorm.DB
}

// NewDailySnapshotRepository creates a new daily snapshot repository
func NewDailySnapshotRepository(db *gorm.DB) *DailySnapshotRepository {
	return &DailySnapshotRepository{db: db}
}

// Upsert writes a snapshot, replacing any existing row for the same
// (device, app, day) key. Last write wins.
func (r *DailySnapshotRepository) Upsert(ctx context.Context, snapshot *usage.DailySnapshot) error {
	model := DailySnapshotModelFromEntity(snapshot)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "device_id"}, {Name: "app_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_minutes", "source", "synced_at", "updated_at",
			}),
		}).
		Create(model).Error
}

// ExistsForDays reports whether any snapshot rows exist for the given devices
// on any of the given day keys
func (r *DailySnapshotRepository) ExistsForDays(ctx context.Context, deviceIDs []uuid.UUID, days []string) (bool, error) {
	if len(deviceIDs) == 0 || len(days) == 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&DailySnapshotModel{}).
		Where("device_id IN ? AND day IN ?", deviceIDs, days).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindForDays retrieves all snapshot rows for the given devices on the given
// day keys
func (r *DailySnapshotRepository) FindForDays(ctx context.Context, deviceIDs []uuid.UUID, days []string) ([]*usage.DailySnapshot, error) {
	if len(deviceIDs) == 0 || len(days) == 0 {
		return nil, nil
	}

	var models []DailySnapshotModel
	err := r.db.WithContext(ctx).
		Where("device_id IN ? AND day IN ?", deviceIDs, days).
		Order("day ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	snapshots := make([]*usage.DailySnapshot, len(models))
	for i := range models {
		snapshots[i] = models[i].ToEntity()
	}
	return snapshots, nil
}

// Ensure DailySnapshotRepository implements the interface
var _ usage.DailySnapshotRepository = (*DailySnapshotRepository)(nil)
