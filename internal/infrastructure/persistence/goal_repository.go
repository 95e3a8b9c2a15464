package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// GoalModel is the GORM model for screen-time goals
type GoalModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DeviceID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name          string     `gorm:"type:varchar(255);not null"`
	Type          string     `gorm:"type:varchar(30);not null"`
	TargetMinutes int        `gorm:"not null"`
	AppID         *uuid.UUID `gorm:"type:uuid"`
	CategoryID    *uuid.UUID `gorm:"type:uuid"`
	EndDate       *time.Time `gorm:""`
	Status        string     `gorm:"type:varchar(20);not null;index"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (GoalModel) TableName() string {
	return "goals"
}

// ToEntity converts the model to a domain entity
func (m *GoalModel) ToEntity() *wellbeing.Goal {
	return &wellbeing.Goal{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		DeviceID:      m.DeviceID,
		Name:          m.Name,
		Type:          wellbeing.GoalType(m.Type),
		TargetMinutes: m.TargetMinutes,
		AppID:         m.AppID,
		CategoryID:    m.CategoryID,
		EndDate:       m.EndDate,
		Status:        wellbeing.GoalStatus(m.Status),
	}
}

// GoalModelFromEntity creates a model from a domain entity
func GoalModelFromEntity(e *wellbeing.Goal) *GoalModel {
	return &GoalModel{
		ID:            e.ID,
		DeviceID:      e.DeviceID,
		Name:          e.Name,
		Type:          string(e.Type),
		TargetMinutes: e.TargetMinutes,
		AppID:         e.AppID,
		CategoryID:    e.CategoryID,
		EndDate:       e.EndDate,
		Status:        string(e.Status),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// GoalRepository implements the wellbeing.GoalRepository interface
type GoalRepository struct {
	db *gorm.DB
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Save persists a new goal
func (r *GoalRepository) Save(ctx context.Context, goal *wellbeing.Goal) error {
	model := GoalModelFromEntity(goal)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Update persists changes to an existing goal
func (r *GoalRepository) Update(ctx context.Context, goal *wellbeing.Goal) error {
	model := GoalModelFromEntity(goal)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// FindByID retrieves a goal by ID
func (r *GoalRepository) FindByID(ctx context.Context, id uuid.UUID) (*wellbeing.Goal, error) {
	var model GoalModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToEntity(), nil
}

// FindByDevice retrieves all goals for a device
func (r *GoalRepository) FindByDevice(ctx context.Context, deviceID uuid.UUID) ([]*wellbeing.Goal, error) {
	var models []GoalModel
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return goalsToEntities(models), nil
}

// FindActiveByDevice retrieves the device's ACTIVE goals
func (r *GoalRepository) FindActiveByDevice(ctx context.Context, deviceID uuid.UUID) ([]*wellbeing.Goal, error) {
	var models []GoalModel
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND status = ?", deviceID, string(wellbeing.GoalStatusActive)).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return goalsToEntities(models), nil
}

// Delete removes a goal
func (r *GoalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&GoalModel{}, "id = ?", id).Error
}

func goalsToEntities(models []GoalModel) []*wellbeing.Goal {
	goals := make([]*wellbeing.Goal, len(models))
	for i := range models {
		goals[i] = models[i].ToEntity()
	}
	return goals
}

// Ensure GoalRepository implements the interface
var _ wellbeing.GoalRepository = (*GoalRepository)(nil)
