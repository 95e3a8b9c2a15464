package wellbeing

import (
	"github.com/google/uuid"
	"github.com/screentime/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeGoal = "Goal"

// Event type constants
const (
	EventTypeGoalExceeded     = "goal.exceeded"
	EventTypeLimitRecommended = "limit.recommended"
)

// GoalExceededEvent is published when a progress evaluation finds a goal at
// or past its target. Delivery is fire-and-forget; evaluation never waits on
// it.
type GoalExceededEvent struct {
	shared.BaseDomainEvent
	GoalID         uuid.UUID `json:"goal_id"`
	GoalName       string    `json:"goal_name,omitempty"`
	TargetMinutes  int       `json:"target_minutes"`
	CurrentMinutes float64   `json:"current_minutes"`
	Percentage     float64   `json:"percentage"`
}

// NewGoalExceededEvent creates a new GoalExceededEvent
func NewGoalExceededEvent(goal *Goal, progress Progress) *GoalExceededEvent {
	return &GoalExceededEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoalExceeded, AggregateTypeGoal, goal.ID, goal.DeviceID),
		GoalID:          goal.ID,
		GoalName:        goal.Name,
		TargetMinutes:   goal.TargetMinutes,
		CurrentMinutes:  progress.CurrentMinutes,
		Percentage:      progress.Percentage,
	}
}

// LimitRecommendedEvent is published when the insight battery recommends a
// per-app limit for a device.
type LimitRecommendedEvent struct {
	shared.BaseDomainEvent
	AppID      uuid.UUID `json:"app_id"`
	AppName    string    `json:"app_name"`
	SharePct   float64   `json:"share_pct"`
	WindowDays int       `json:"window_days"`
}

// NewLimitRecommendedEvent creates a new LimitRecommendedEvent
func NewLimitRecommendedEvent(deviceID, appID uuid.UUID, appName string, sharePct float64, windowDays int) *LimitRecommendedEvent {
	return &LimitRecommendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLimitRecommended, AggregateTypeGoal, appID, deviceID),
		AppID:           appID,
		AppName:         appName,
		SharePct:        sharePct,
		WindowDays:      windowDays,
	}
}
