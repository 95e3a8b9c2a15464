package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// AppLimitModel is the GORM model for per-app daily limits
type AppLimitModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeviceID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_app_limits_key,priority:1"`
	AppID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_app_limits_key,priority:2"`
	DailyLimitMinutes int       `gorm:"not null"`
	Enabled           bool      `gorm:"not null;default:true"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (AppLimitModel) TableName() string {
	return "app_limits"
}

// ToEntity converts the model to a domain entity
func (m *AppLimitModel) ToEntity() *wellbeing.AppLimit {
	return &wellbeing.AppLimit{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		DeviceID:          m.DeviceID,
		AppID:             m.AppID,
		DailyLimitMinutes: m.DailyLimitMinutes,
		Enabled:           m.Enabled,
	}
}

// AppLimitModelFromEntity creates a model from a domain entity
func AppLimitModelFromEntity(e *wellbeing.AppLimit) *AppLimitModel {
	return &AppLimitModel{
		ID:                e.ID,
		DeviceID:          e.DeviceID,
		AppID:             e.AppID,
		DailyLimitMinutes: e.DailyLimitMinutes,
		Enabled:           e.Enabled,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

// AppLimitRepository implements the wellbeing.AppLimitRepository interface
type AppLimitRepository struct {
	db *gorm.DB
}

// NewAppLimitRepository creates a new app limit repository
func NewAppLimitRepository(db *gorm.DB) *AppLimitRepository {
	return &AppLimitRepository{db: db}
}

// Save persists a new limit
func (r *AppLimitRepository) Save(ctx context.Context, limit *wellbeing.AppLimit) error {
	model := AppLimitModelFromEntity(limit)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// FindByDevice retrieves all limits for a device
func (r *AppLimitRepository) FindByDevice(ctx context.Context, deviceID uuid.UUID) ([]*wellbeing.AppLimit, error) {
	var models []AppLimitModel
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	limits := make([]*wellbeing.AppLimit, len(models))
	for i := range models {
		limits[i] = models[i].ToEntity()
	}
	return limits, nil
}

// ExistsForApp reports whether the device already has a limit configured for
// the given app
func (r *AppLimitRepository) ExistsForApp(ctx context.Context, deviceID, appID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&AppLimitModel{}).
		Where("device_id = ? AND app_id = ?", deviceID, appID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a limit
func (r *AppLimitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&AppLimitModel{}, "id = ?", id).Error
}

// Ensure AppLimitRepository implements the interface
var _ wellbeing.AppLimitRepository = (*AppLimitRepository)(nil)
