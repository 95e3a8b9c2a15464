package wellbeing

import (
	"context"

	"github.com/google/uuid"
)

// GoalRepository defines the interface for goal persistence
type GoalRepository interface {
	// Save persists a new goal
	Save(ctx context.Context, goal *Goal) error

	// Update persists changes to an existing goal
	Update(ctx context.Context, goal *Goal) error

	// FindByID retrieves a goal by ID. Returns shared.ErrNotFound when it
	// does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Goal, error)

	// FindByDevice retrieves all goals for a device
	FindByDevice(ctx context.Context, deviceID uuid.UUID) ([]*Goal, error)

	// FindActiveByDevice retrieves the device's ACTIVE goals
	FindActiveByDevice(ctx context.Context, deviceID uuid.UUID) ([]*Goal, error)

	// Delete removes a goal
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository defines the interface for app category membership
type CategoryRepository interface {
	// Save persists a new category
	Save(ctx context.Context, category *AppCategory) error

	// FindByID retrieves a category. Returns shared.ErrNotFound when the
	// referenced category has been deleted.
	FindByID(ctx context.Context, id uuid.UUID) (*AppCategory, error)

	// FindByDevice retrieves all categories for a device
	FindByDevice(ctx context.Context, deviceID uuid.UUID) ([]*AppCategory, error)

	// ListAppIDs returns the IDs of the apps belonging to the category
	ListAppIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error)

	// AddApp adds an app to the category (idempotent per device+category+app)
	AddApp(ctx context.Context, categoryID, appID uuid.UUID) error

	// RemoveApp removes an app from the category
	RemoveApp(ctx context.Context, categoryID, appID uuid.UUID) error
}

// AppLimitRepository defines the interface for per-app limit persistence
type AppLimitRepository interface {
	// Save persists a new limit
	Save(ctx context.Context, limit *AppLimit) error

	// FindByDevice retrieves all limits for a device
	FindByDevice(ctx context.Context, deviceID uuid.UUID) ([]*AppLimit, error)

	// ExistsForApp reports whether the device already has a limit configured
	// for the given app
	ExistsForApp(ctx context.Context, deviceID, appID uuid.UUID) (bool, error)

	// Delete removes a limit
	Delete(ctx context.Context, id uuid.UUID) error
}
