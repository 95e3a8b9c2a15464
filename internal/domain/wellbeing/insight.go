package wellbeing

import "github.com/google/uuid"

// InsightType classifies an observation about usage behavior
type InsightType string

// Insight types, in battery emission order
const (
	InsightTypePattern        InsightType = "pattern"
	InsightTypeTrend          InsightType = "trend"
	InsightTypeComparison     InsightType = "comparison"
	InsightTypePrediction     InsightType = "prediction"
	InsightTypeGoalProgress   InsightType = "goal_progress"
	InsightTypeRecommendation InsightType = "recommendation"
)

// InsightSeverity grades an insight
type InsightSeverity string

// Insight severities
const (
	SeverityInfo    InsightSeverity = "info"
	SeverityWarning InsightSeverity = "warning"
	SeveritySuccess InsightSeverity = "success"
)

// Suggested action types
const (
	ActionViewGoal = "view_goal"
	ActionSetLimit = "set_limit"
)

// SuggestedAction is an optional next step attached to an insight
type SuggestedAction struct {
	Type     string     `json:"type"`
	Label    string     `json:"label"`
	TargetID *uuid.UUID `json:"target_id,omitempty"`
}

// Insight is a derived, ephemeral observation over a device's recent usage.
// Insights are recomputed on every request and never persisted; the same
// underlying data always yields the same insights.
type Insight struct {
	Type        InsightType      `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Severity    InsightSeverity  `json:"severity"`
	Data        map[string]any   `json:"data,omitempty"`
	Action      *SuggestedAction `json:"action,omitempty"`
	Confidence  *int             `json:"confidence,omitempty"`
}

// WithConfidence attaches a confidence score (0-100)
func (i Insight) WithConfidence(score int) Insight {
	i.Confidence = &score
	return i
}

// WithAction attaches a suggested action
func (i Insight) WithAction(actionType, label string, targetID *uuid.UUID) Insight {
	i.Action = &SuggestedAction{Type: actionType, Label: label, TargetID: targetID}
	return i
}
