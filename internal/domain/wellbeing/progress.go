package wellbeing

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Progress status labels
const (
	ProgressOnTrack  = "on_track"
	ProgressAtRisk   = "at_risk"
	ProgressExceeded = "exceeded"
)

// Progress thresholds, as percentages of the goal target.
const (
	AtRiskThreshold   = 80.0
	WarningThreshold  = 90.0
	ExceededThreshold = 100.0
)

// Progress is the computed standing of a goal against its target. It is a
// transient value, recomputed on every read.
type Progress struct {
	GoalID           uuid.UUID `json:"goal_id"`
	GoalName         string    `json:"goal_name,omitempty"`
	Type             GoalType  `json:"type"`
	TargetMinutes    int       `json:"target_minutes"`
	CurrentMinutes   float64   `json:"current_minutes"`
	Percentage       float64   `json:"percentage"`
	RemainingMinutes float64   `json:"remaining_minutes"`
	Status           string    `json:"status"`
	DaysRemaining    *int      `json:"days_remaining,omitempty"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}

// NewProgress derives the progress fields from a goal and its current
// minutes as produced by the aggregation engine.
func NewProgress(goal *Goal, currentMinutes float64, now time.Time) Progress {
	percentage := decimal.NewFromFloat(currentMinutes).
		Div(decimal.NewFromInt(int64(goal.TargetMinutes))).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()

	remaining := float64(goal.TargetMinutes) - currentMinutes
	if remaining < 0 {
		remaining = 0
	}

	p := Progress{
		GoalID:           goal.ID,
		GoalName:         goal.Name,
		Type:             goal.Type,
		TargetMinutes:    goal.TargetMinutes,
		CurrentMinutes:   currentMinutes,
		Percentage:       percentage,
		RemainingMinutes: remaining,
		Status:           statusFor(percentage),
		EvaluatedAt:      now,
	}

	if goal.EndDate != nil {
		days := int(math.Ceil(goal.EndDate.Sub(now).Hours() / 24))
		p.DaysRemaining = &days
	}

	return p
}

// statusFor maps a percentage to a progress label. The 80-99 band carries a
// single at_risk label; the 90% boundary only matters for insight severity.
func statusFor(percentage float64) string {
	switch {
	case percentage >= ExceededThreshold:
		return ProgressExceeded
	case percentage >= AtRiskThreshold:
		return ProgressAtRisk
	default:
		return ProgressOnTrack
	}
}

// NeedsAttention reports whether the progress should surface as an insight
func (p Progress) NeedsAttention() bool {
	return p.Percentage >= AtRiskThreshold
}
