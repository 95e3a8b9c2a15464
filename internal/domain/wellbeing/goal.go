package wellbeing

import (
	"time"

	"github.com/google/uuid"
	"github.com/screentime/backend/internal/domain/shared"
)

// GoalType identifies what a goal measures
type GoalType string

// Goal types
const (
	GoalTypeDailyTotal       GoalType = "DAILY_TOTAL"
	GoalTypeWeeklyTotal      GoalType = "WEEKLY_TOTAL"
	GoalTypeAppSpecific      GoalType = "APP_SPECIFIC"
	GoalTypeCategorySpecific GoalType = "CATEGORY_SPECIFIC"
)

// IsValid returns true if the goal type is known
func (t GoalType) IsValid() bool {
	switch t {
	case GoalTypeDailyTotal, GoalTypeWeeklyTotal, GoalTypeAppSpecific, GoalTypeCategorySpecific:
		return true
	}
	return false
}

// GoalStatus is the lifecycle state of a goal
type GoalStatus string

// Goal statuses
const (
	GoalStatusActive    GoalStatus = "ACTIVE"
	GoalStatusPaused    GoalStatus = "PAUSED"
	GoalStatusCompleted GoalStatus = "COMPLETED"
	GoalStatusArchived  GoalStatus = "ARCHIVED"
)

// IsValid returns true if the status is known
func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalStatusActive, GoalStatusPaused, GoalStatusCompleted, GoalStatusArchived:
		return true
	}
	return false
}

// Goal is a screen-time target for a device. Progress against the target is
// always computed on read from the aggregation engine; it is never stored.
type Goal struct {
	shared.BaseEntity
	DeviceID      uuid.UUID
	Name          string
	Type          GoalType
	TargetMinutes int
	// AppID is required for APP_SPECIFIC goals
	AppID *uuid.UUID
	// CategoryID is required for CATEGORY_SPECIFIC goals
	CategoryID *uuid.UUID
	EndDate    *time.Time
	Status     GoalStatus
}

// NewGoal creates a goal with its type invariants enforced
func NewGoal(deviceID uuid.UUID, name string, goalType GoalType, targetMinutes int, appID, categoryID *uuid.UUID, endDate *time.Time) (*Goal, error) {
	if deviceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Device ID cannot be empty")
	}
	if !goalType.IsValid() {
		return nil, shared.NewDomainError("INVALID_GOAL_TYPE", "Unknown goal type")
	}
	if targetMinutes <= 0 {
		return nil, shared.NewDomainError("INVALID_TARGET", "Target minutes must be positive")
	}
	if goalType == GoalTypeAppSpecific && (appID == nil || *appID == uuid.Nil) {
		return nil, shared.NewDomainError("INVALID_INPUT", "App-specific goals require an app reference")
	}
	if goalType == GoalTypeCategorySpecific && (categoryID == nil || *categoryID == uuid.Nil) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Category-specific goals require a category reference")
	}

	return &Goal{
		BaseEntity:    shared.NewBaseEntity(),
		DeviceID:      deviceID,
		Name:          name,
		Type:          goalType,
		TargetMinutes: targetMinutes,
		AppID:         appID,
		CategoryID:    categoryID,
		EndDate:       endDate,
		Status:        GoalStatusActive,
	}, nil
}

// IsActive reports whether the goal participates in batch evaluation
func (g *Goal) IsActive() bool {
	return g.Status == GoalStatusActive
}

// SetStatus moves the goal to a new lifecycle state
func (g *Goal) SetStatus(status GoalStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown goal status")
	}
	g.Status = status
	g.UpdatedAt = time.Now()
	return nil
}

// UpdateTarget changes the goal target
func (g *Goal) UpdateTarget(targetMinutes int) error {
	if targetMinutes <= 0 {
		return shared.NewDomainError("INVALID_TARGET", "Target minutes must be positive")
	}
	g.TargetMinutes = targetMinutes
	g.UpdatedAt = time.Now()
	return nil
}
