package wellbeing

import (
	"time"

	"github.com/google/uuid"
)

// CreateGoalCommand is the input for creating a goal.
type CreateGoalCommand struct {
	DeviceIdentifier string
	Name             string
	Type             string
	TargetMinutes    int
	AppID            *uuid.UUID
	CategoryID       *uuid.UUID
	EndDate          *time.Time
}

// UpdateGoalCommand is the input for updating a goal. Nil fields are left
// unchanged.
type UpdateGoalCommand struct {
	Name          *string
	TargetMinutes *int
	Status        *string
}

// CreateCategoryCommand is the input for creating an app category.
type CreateCategoryCommand struct {
	DeviceIdentifier string
	Name             string
}

// CreateLimitCommand is the input for configuring a per-app daily limit.
type CreateLimitCommand struct {
	DeviceIdentifier  string
	AppID             uuid.UUID
	DailyLimitMinutes int
}
