package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// AlertNotifier reacts to wellbeing alerts published on the event bus. This
// implementation writes structured log lines; a push-notification transport
// can replace it without touching the publishers.
type AlertNotifier struct {
	logger *zap.Logger
}

// NewAlertNotifier creates a new AlertNotifier
func NewAlertNotifier(logger *zap.Logger) *AlertNotifier {
	return &AlertNotifier{logger: logger.Named("notify")}
}

// EventTypes returns the event types this handler subscribes to
func (n *AlertNotifier) EventTypes() []string {
	return []string{
		wellbeing.EventTypeGoalExceeded,
		wellbeing.EventTypeLimitRecommended,
	}
}

// Handle processes a wellbeing alert event
func (n *AlertNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *wellbeing.GoalExceededEvent:
		n.logger.Info("Goal exceeded",
			zap.String("device_id", e.DeviceID().String()),
			zap.String("goal_id", e.GoalID.String()),
			zap.String("goal_name", e.GoalName),
			zap.Int("target_minutes", e.TargetMinutes),
			zap.Float64("current_minutes", e.CurrentMinutes),
			zap.Float64("percentage", e.Percentage))
	case *wellbeing.LimitRecommendedEvent:
		n.logger.Info("App limit recommended",
			zap.String("device_id", e.DeviceID().String()),
			zap.String("app_id", e.AppID.String()),
			zap.String("app_name", e.AppName),
			zap.Float64("share_pct", e.SharePct),
			zap.Int("window_days", e.WindowDays))
	default:
		n.logger.Debug("Ignoring unexpected event",
			zap.String("event_type", event.EventType()))
	}
	return nil
}

// Ensure AlertNotifier implements EventHandler
var _ shared.EventHandler = (*AlertNotifier)(nil)
