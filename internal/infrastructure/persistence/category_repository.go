package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// AppCategoryModel is the GORM model for app categories
type AppCategoryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeviceID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_app_categories_name,priority:1"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_app_categories_name,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (AppCategoryModel) TableName() string {
	return "app_categories"
}

// ToEntity converts the model to a domain entity
func (m *AppCategoryModel) ToEntity() *wellbeing.AppCategory {
	return &wellbeing.AppCategory{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		DeviceID: m.DeviceID,
		Name:     m.Name,
	}
}

// AppCategoryModelFromEntity creates a model from a domain entity
func AppCategoryModelFromEntity(e *wellbeing.AppCategory) *AppCategoryModel {
	return &AppCategoryModel{
		ID:        e.ID,
		DeviceID:  e.DeviceID,
		Name:      e.Name,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// CategoryAppModel is the GORM model for category membership rows
type CategoryAppModel struct {
	CategoryID uuid.UUID `gorm:"type:uuid;primaryKey"`
	AppID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for the model
func (CategoryAppModel) TableName() string {
	return "category_apps"
}

// CategoryRepository implements the wellbeing.CategoryRepository interface
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Save persists a new category
func (r *CategoryRepository) Save(ctx context.Context, category *wellbeing.AppCategory) error {
	model := AppCategoryModelFromEntity(category)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// FindByID retrieves a category by ID
func (r *CategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*wellbeing.AppCategory, error) {
	var model AppCategoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToEntity(), nil
}

// FindByDevice retrieves all categories for a device
func (r *CategoryRepository) FindByDevice(ctx context.Context, deviceID uuid.UUID) ([]*wellbeing.AppCategory, error) {
	var models []AppCategoryModel
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	categories := make([]*wellbeing.AppCategory, len(models))
	for i := range models {
		categories[i] = models[i].ToEntity()
	}
	return categories, nil
}

// ListAppIDs returns the IDs of the apps belonging to the category
func (r *CategoryRepository) ListAppIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&CategoryAppModel{}).
		Where("category_id = ?", categoryID).
		Order("created_at ASC").
		Pluck("app_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AddApp adds an app to the category. Adding an app that is already a member
// is a no-op.
func (r *CategoryRepository) AddApp(ctx context.Context, categoryID, appID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&CategoryAppModel{CategoryID: categoryID, AppID: appID}).Error
}

// RemoveApp removes an app from the category
func (r *CategoryRepository) RemoveApp(ctx context.Context, categoryID, appID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("category_id = ? AND app_id = ?", categoryID, appID).
		Delete(&CategoryAppModel{}).Error
}

// Ensure CategoryRepository implements the interface
var _ wellbeing.CategoryRepository = (*CategoryRepository)(nil)
