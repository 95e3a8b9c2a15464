package directory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/screentime/backend/internal/domain/shared"
)

// Device is a registered child device. Devices authenticate by a stable
// hardware/install identifier rather than a server-generated ID; all usage
// data is owned by the (device, app) pair that produced it.
type Device struct {
	shared.BaseEntity
	// Identifier is the stable client-side identifier, unique platform-wide.
	Identifier string
	OwnerID    uuid.UUID
	Name       string
	Platform   string
	LastSeenAt *time.Time
}

// NewDevice registers a device for an owner
func NewDevice(ownerID uuid.UUID, identifier, name, platform string) (*Device, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Device identifier cannot be empty")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Owner ID cannot be empty")
	}
	if name == "" {
		name = identifier
	}

	return &Device{
		BaseEntity: shared.NewBaseEntity(),
		Identifier: identifier,
		OwnerID:    ownerID,
		Name:       name,
		Platform:   platform,
	}, nil
}

// Touch records that the device reported data at the given instant
func (d *Device) Touch(at time.Time) {
	d.LastSeenAt = &at
	d.UpdatedAt = at
}

// IsOwnedBy reports whether the given user owns this device
func (d *Device) IsOwnedBy(userID uuid.UUID) bool {
	return d.OwnerID == userID
}
