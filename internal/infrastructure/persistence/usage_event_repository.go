package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/usage"
)

// UsageEventModel is the GORM model for raw usage events
type UsageEventModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeviceID        uuid.UUID `gorm:"type:uuid;not null;index:idx_usage_events_device_occurred,priority:1;uniqueIndex:uq_usage_events_client_id,priority:1"`
	AppID           uuid.UUID `gorm:"type:uuid;not null;index"`
	DurationSeconds int       `gorm:"not null"`
	OccurredAt      time.Time `gorm:"not null;index:idx_usage_events_device_occurred,priority:2"`
	// ClientEventID is NULL when the client did not supply one, so the unique
	// index only binds events that carry an idempotency key.
	ClientEventID *string   `gorm:"type:varchar(128);uniqueIndex:uq_usage_events_client_id,priority:2"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (UsageEventModel) TableName() string {
	return "usage_events"
}

// ToEntity converts the model to a domain entity
func (m *UsageEventModel) ToEntity() *usage.UsageEvent {
	clientEventID := ""
	if m.ClientEventID != nil {
		clientEventID = *m.ClientEventID
	}
	return &usage.UsageEvent{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		DeviceID:        m.DeviceID,
		AppID:           m.AppID,
		DurationSeconds: m.DurationSeconds,
		OccurredAt:      m.OccurredAt,
		ClientEventID:   clientEventID,
	}
}

// UsageEventModelFromEntity creates a model from a domain entity
func UsageEventModelFromEntity(e *usage.UsageEvent) *UsageEventModel {
	var clientEventID *string
	if e.ClientEventID != "" {
		clientEventID = &e.ClientEventID
	}
	return &UsageEventModel{
		ID:              e.ID,
		DeviceID:        e.DeviceID,
		AppID:           e.AppID,
		DurationSeconds: e.DurationSeconds,
		OccurredAt:      e.OccurredAt,
		ClientEventID:   clientEventID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// UsageEventRepository implements the usage.UsageEventRepository interface
type UsageEventRepository struct {
	db *gorm.DB
}

// NewUsageEventRepository creates a new usage event repository
func NewUsageEventRepository(db *gorm.DB) *UsageEventRepository {
	return &UsageEventRepository{db: db}
}

// Save persists a new usage event
func (r *UsageEventRepository) Save(ctx context.Context, event *usage.UsageEvent) error {
	model := UsageEventModelFromEntity(event)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// FindByID retrieves a usage event by its ID
func (r *UsageEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*usage.UsageEvent, error) {
	var model UsageEventModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToEntity(), nil
}

// FindByClientEventID retrieves the event stored for a device under the given
// client-supplied event ID
func (r *UsageEventRepository) FindByClientEventID(ctx context.Context, deviceID uuid.UUID, clientEventID string) (*usage.UsageEvent, error) {
	var model UsageEventModel
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND client_event_id = ?", deviceID, clientEventID).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToEntity(), nil
}

// FindNearDuplicate retrieves an event for the same device and app with
// identical duration whose occurred-at falls within the given window
func (r *UsageEventRepository) FindNearDuplicate(ctx context.Context, deviceID, appID uuid.UUID, durationSeconds int, occurredAt time.Time, window time.Duration) (*usage.UsageEvent, error) {
	var model UsageEventModel
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND app_id = ? AND duration_seconds = ?", deviceID, appID, durationSeconds).
		Where("occurred_at >= ? AND occurred_at <= ?", occurredAt.Add(-window), occurredAt.Add(window)).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToEntity(), nil
}

// FindOverlapping retrieves all events for the given devices whose interval
// overlaps [start, end], ordered by occurred-at ascending. An event's interval
// starts duration seconds before its occurred-at, so the query over-fetches by
// the maximum event duration and the exact overlap check happens in Go, which
// keeps the SQL free of engine-specific date arithmetic.
func (r *UsageEventRepository) FindOverlapping(ctx context.Context, deviceIDs []uuid.UUID, start, end time.Time) ([]*usage.UsageEvent, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}

	fetchEnd := end.Add(usage.MaxEventDurationSeconds * time.Second)
	var models []UsageEventModel
	err := r.db.WithContext(ctx).
		Where("device_id IN ?", deviceIDs).
		Where("occurred_at >= ? AND occurred_at <= ?", start, fetchEnd).
		Order("occurred_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	events := make([]*usage.UsageEvent, 0, len(models))
	for i := range models {
		event := models[i].ToEntity()
		if eventStart, _ := event.Interval(); !eventStart.After(end) {
			events = append(events, event)
		}
	}
	return events, nil
}

// FindEndingWithin retrieves all events for the given devices whose
// occurred-at instant falls inside [start, end], ordered by occurred-at
// ascending
func (r *UsageEventRepository) FindEndingWithin(ctx context.Context, deviceIDs []uuid.UUID, start, end time.Time) ([]*usage.UsageEvent, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}

	var models []UsageEventModel
	err := r.db.WithContext(ctx).
		Where("device_id IN ?", deviceIDs).
		Where("occurred_at >= ? AND occurred_at <= ?", start, end).
		Order("occurred_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	events := make([]*usage.UsageEvent, len(models))
	for i := range models {
		events[i] = models[i].ToEntity()
	}
	return events, nil
}

// Ensure UsageEventRepository implements the interface
var _ usage.UsageEventRepository = (*UsageEventRepository)(nil)
