package wellbeing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/screentime/backend/internal/domain/shared"
)

// AppCategory is a parent-defined grouping of apps on one device (e.g.
// "Games", "Social"). Membership is unique per (device, category, app).
type AppCategory struct {
	shared.BaseEntity
	DeviceID uuid.UUID
	Name     string
}

// NewAppCategory creates a category for a device
func NewAppCategory(deviceID uuid.UUID, name string) (*AppCategory, error) {
	name = strings.TrimSpace(name)
	if deviceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Device ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Category name cannot be empty")
	}

	return &AppCategory{
		BaseEntity: shared.NewBaseEntity(),
		DeviceID:   deviceID,
		Name:       name,
	}, nil
}
