package directory

import (
	"context"

	"github.com/google/uuid"
)

// DeviceRepository defines the interface for device directory persistence
type DeviceRepository interface {
	// Save persists a new device
	Save(ctx context.Context, device *Device) error

	// Update persists changes to an existing device
	Update(ctx context.Context, device *Device) error

	// FindByID retrieves a device by its server-side ID
	FindByID(ctx context.Context, id uuid.UUID) (*Device, error)

	// FindByIdentifier resolves a client-supplied device identifier.
	// Returns shared.ErrNotFound for unregistered identifiers.
	FindByIdentifier(ctx context.Context, identifier string) (*Device, error)

	// FindByOwner retrieves all devices owned by a user
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Device, error)

	// FindAll retrieves every registered device (elevated scope only)
	FindAll(ctx context.Context) ([]*Device, error)
}

// AppRepository defines the interface for the app directory
type AppRepository interface {
	// FindByID retrieves an app by ID
	FindByID(ctx context.Context, id uuid.UUID) (*App, error)

	// FindByIDs retrieves the apps with the given IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*App, error)

	// FindByPackage retrieves an app by package name.
	// Returns shared.ErrNotFound when unknown.
	FindByPackage(ctx context.Context, packageName string) (*App, error)

	// Save persists a new app entry
	Save(ctx context.Context, app *App) error

	// Update persists changes (e.g. a renamed display name)
	Update(ctx context.Context, app *App) error
}
