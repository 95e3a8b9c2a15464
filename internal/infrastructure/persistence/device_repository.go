package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
)

// DeviceModel is the GORM model for registered devices
type DeviceModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Identifier string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	OwnerID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name       string     `gorm:"type:varchar(255);not null"`
	Platform   string     `gorm:"type:varchar(50)"`
	LastSeenAt *time.Time `gorm:""`
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (DeviceModel) TableName() string {
	return "devices"
}

// ToEntity converts the model to a domain entity
func (m *DeviceModel) ToEntity() *directory.Device {
	return &directory.Device{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Identifier: m.Identifier,
		OwnerID:    m.OwnerID,
		Name:       m.Name,
		Platform:   m.Platform,
		LastSeenAt: m.LastSeenAt,
	}
}

// DeviceModelFromEntity creates a model from a domain entity
func DeviceModelFromEntity(e *directory.Device) *DeviceModel {
	return &DeviceModel{
		ID:         e.ID,
		Identifier: e.Identifier,
		OwnerID:    e.OwnerID,
		Name:       e.Name,
		Platform:   e.Platform,
		LastSeenAt: e.LastSeenAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// DeviceRepository implements the directory.DeviceRepository interface
type DeviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Save persists a new device
func (r *DeviceRepository) Save(ctx context.Context, device *directory.Device) error {
	model := DeviceModelFromEntity(device)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Update persists changes to an existing device
func (r *DeviceRepository) Update(ctx context.Context, device *directory.Device) error {
	model := DeviceModelFromEntity(device)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// FindByID retrieves a device by its ID
func (r *DeviceRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.Device, error) {
	var model DeviceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToEntity(), nil
}

// FindByIdentifier retrieves a device by its client-side identifier
func (r *DeviceRepository) FindByIdentifier(ctx context.Context, identifier string) (*directory.Device, error) {
	var model DeviceModel
	if err := r.db.WithContext(ctx).First(&model, "identifier = ?", identifier).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToEntity(), nil
}

// FindByOwner retrieves all devices registered by an owner
func (r *DeviceRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*directory.Device, error) {
	var models []DeviceModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return devicesToEntities(models), nil
}

// FindAll retrieves every registered device
func (r *DeviceRepository) FindAll(ctx context.Context) ([]*directory.Device, error) {
	var models []DeviceModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return devicesToEntities(models), nil
}

func devicesToEntities(models []DeviceModel) []*directory.Device {
	devices := make([]*directory.Device, len(models))
	for i := range models {
		devices[i] = models[i].ToEntity()
	}
	return devices
}

// Ensure DeviceRepository implements the interface
var _ directory.DeviceRepository = (*DeviceRepository)(nil)
