package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
)

// AppModel is the GORM model for the app directory
type AppModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PackageName string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name        string    `gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (AppModel) TableName() string {
	return "apps"
}

// ToEntity converts the model to a domain entity
func (m *AppModel) ToEntity() *directory.App {
	return &directory.App{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		PackageName: m.PackageName,
		Name:        m.Name,
	}
}

// AppModelFromEntity creates a model from a domain entity
func AppModelFromEntity(e *directory.App) *AppModel {
	return &AppModel{
		ID:          e.ID,
		PackageName: e.PackageName,
		Name:        e.Name,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// AppRepository implements the directory.AppRepository interface
type AppRepository struct {
	db *gorm.DB
}

// NewAppRepository creates a new app repository
func NewAppRepository(db *gorm.DB) *AppRepository {
	return &AppRepository{db: db}
}

// Save persists a new app directory entry
func (r *AppRepository) Save(ctx context.Context, app *directory.App) error {
	model := AppModelFromEntity(app)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Update persists changes to an existing app entry
func (r *AppRepository) Update(ctx context.Context, app *directory.App) error {
	model := AppModelFromEntity(app)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// FindByID retrieves an app by its ID
func (r *AppRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.App, error) {
	var model AppModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToEntity(), nil
}

// FindByIDs retrieves the apps with the given IDs
func (r *AppRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*directory.App, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var models []AppModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	apps := make([]*directory.App, len(models))
	for i := range models {
		apps[i] = models[i].ToEntity()
	}
	return apps, nil
}

// FindByPackage retrieves an app by its package name
func (r *AppRepository) FindByPackage(ctx context.Context, packageName string) (*directory.App, error) {
	var model AppModel
	if err := r.db.WithContext(ctx).First(&model, "package_name = ?", packageName).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToEntity(), nil
}

// Ensure AppRepository implements the interface
var _ directory.AppRepository = (*AppRepository)(nil)
