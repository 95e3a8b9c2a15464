package wellbeing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/usage"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// Detector thresholds, in percent unless noted.
const (
	patternDiffPct           = 20.0
	patternWarningPct        = 50.0
	trendChangePct           = 10.0
	trendSuccessPct          = -20.0
	trendWarningPct          = 20.0
	comparisonSharePct       = 30.0
	comparisonWarningPct     = 50.0
	predictionWarningMinutes = 3000.0
	recommendationSharePct   = 40.0
	goalInsightConfidence    = 100
	recommendationConfidence = 75
)

// DefaultInsightWindowDays is the lookback window for the insight battery
// when the caller does not specify one.
const DefaultInsightWindowDays = 30

// GoalProgressSource supplies evaluated goal progress for the goal-progress
// detector.
type GoalProgressSource interface {
	GetAllGoalProgress(ctx context.Context, scope directory.Scope, deviceIdentifier string) ([]wellbeing.Progress, error)
}

// InsightService runs the insight battery: six detectors over a device's
// recent usage, evaluated in a fixed order. Insights are ephemeral; the same
// data always yields the same list.
type InsightService struct {
	limitRepo   wellbeing.AppLimitRepository
	deviceRepo  directory.DeviceRepository
	usageReader UsageReader
	goals       GoalProgressSource
	publisher   shared.EventPublisher
	logger      *zap.Logger
	now         func() time.Time

	// recommended tracks (device, app) pairs whose limit recommendation was
	// already published, so repeated reads don't spam the notifier.
	mu          sync.Mutex
	recommended map[string]struct{}
}

// NewInsightService creates a new InsightService
func NewInsightService(
	limitRepo wellbeing.AppLimitRepository,
	deviceRepo directory.DeviceRepository,
	usageReader UsageReader,
	goals GoalProgressSource,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *InsightService {
	return &InsightService{
		limitRepo:   limitRepo,
		deviceRepo:  deviceRepo,
		usageReader: usageReader,
		goals:       goals,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
		recommended: make(map[string]struct{}),
	}
}

// WithClock overrides the service clock. Test hook.
func (s *InsightService) WithClock(now func() time.Time) *InsightService {
	s.now = now
	return s
}

// usageWindow is the per-day usage matrix the detectors read from.
type usageWindow struct {
	days        []string
	dailyTotals map[string]float64
	// appTotals and appNames cover the whole window.
	appTotals map[uuid.UUID]float64
	appOrder  []uuid.UUID
	appNames  map[uuid.UUID]string
	// weekend/weekday split per app, in summed minutes.
	weekendMinutes map[uuid.UUID]float64
	weekdayMinutes map[uuid.UUID]float64
	totalMinutes   float64
}

// GetInsights runs the battery over the trailing window ending today.
// A window with no usage at all yields an empty list, not an error.
func (s *InsightService) GetInsights(ctx context.Context, scope directory.Scope, deviceIdentifier string, windowDays int) ([]wellbeing.Insight, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = DefaultInsightWindowDays
	}

	window, err := s.collect(ctx, device.ID, windowDays)
	if err != nil {
		return nil, err
	}

	insights := make([]wellbeing.Insight, 0, 6)
	if window.totalMinutes == 0 {
		return insights, nil
	}

	insights = append(insights, s.detectWeekendPattern(window, windowDays)...)
	if insight := s.detectWeeklyTrend(window, windowDays); insight != nil {
		insights = append(insights, *insight)
	}
	if insight := s.detectTopAppShare(window); insight != nil {
		insights = append(insights, *insight)
	}
	if insight := s.detectProjection(window, windowDays); insight != nil {
		insights = append(insights, *insight)
	}

	goalInsights, err := s.detectGoalProgress(ctx, scope, deviceIdentifier)
	if err != nil {
		s.logger.Warn("Goal-progress detector failed",
			zap.String("device_id", device.ID.String()),
			zap.Error(err))
	} else {
		insights = append(insights, goalInsights...)
	}

	if insight := s.detectLimitRecommendation(ctx, device.ID, window, windowDays); insight != nil {
		insights = append(insights, *insight)
	}

	return insights, nil
}

// collect builds the per-day usage matrix for the trailing window.
func (s *InsightService) collect(ctx context.Context, deviceID uuid.UUID, windowDays int) (*usageWindow, error) {
	now := s.now()
	startKey := usage.DateKeyOf(now.AddDate(0, 0, -(windowDays - 1)))
	endKey := usage.DateKeyOf(now)

	window := &usageWindow{
		days:           usage.DateKeysBetween(startKey, endKey, now),
		dailyTotals:    make(map[string]float64),
		appTotals:      make(map[uuid.UUID]float64),
		appNames:       make(map[uuid.UUID]string),
		weekendMinutes: make(map[uuid.UUID]float64),
		weekdayMinutes: make(map[uuid.UUID]float64),
	}

	for _, day := range window.days {
		rows, _, err := s.usageReader.RangeRowsForDevice(ctx, deviceID, day, day)
		if err != nil {
			return nil, err
		}

		date, parseErr := time.ParseInLocation(usage.DateKeyLayout, day, usage.CalendarZone())
		if parseErr != nil {
			return nil, parseErr
		}
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

		var dayMinutes float64
		for _, row := range rows {
			dayMinutes += row.TotalMinutes
			if _, seen := window.appTotals[row.AppID]; !seen {
				window.appOrder = append(window.appOrder, row.AppID)
			}
			window.appTotals[row.AppID] += row.TotalMinutes
			if row.AppName != "" {
				window.appNames[row.AppID] = row.AppName
			}
			if weekend {
				window.weekendMinutes[row.AppID] += row.TotalMinutes
			} else {
				window.weekdayMinutes[row.AppID] += row.TotalMinutes
			}
		}
		window.dailyTotals[day] = usage.RoundMinutes(dayMinutes)
		window.totalMinutes += dayMinutes
	}
	window.totalMinutes = usage.RoundMinutes(window.totalMinutes)
	return window, nil
}

// detectWeekendPattern flags apps whose weekend and weekday daily averages
// diverge by more than a fifth, one insight per qualifying app. Apps silent
// on either side of the split are skipped; a ratio against a zero average
// is meaningless.
func (s *InsightService) detectWeekendPattern(window *usageWindow, windowDays int) []wellbeing.Insight {
	weekendDays := (windowDays / 7) * 2
	if weekendDays < 1 {
		weekendDays = 1
	}
	weekdayDays := windowDays - weekendDays
	if weekdayDays < 1 {
		weekdayDays = 1
	}

	insights := make([]wellbeing.Insight, 0)
	for _, appID := range window.appOrder {
		weekendAvg := window.weekendMinutes[appID] / float64(weekendDays)
		weekdayAvg := window.weekdayMinutes[appID] / float64(weekdayDays)
		if weekendAvg <= 0 || weekdayAvg <= 0 {
			continue
		}

		diff := (weekendAvg - weekdayAvg) / weekdayAvg * 100
		abs := diff
		if abs < 0 {
			abs = -abs
		}
		if abs <= patternDiffPct {
			continue
		}

		severity := wellbeing.SeverityInfo
		if diff > patternWarningPct {
			severity = wellbeing.SeverityWarning
		}

		direction := "more"
		if diff < 0 {
			direction = "less"
		}
		name := s.appLabel(window, appID)
		insights = append(insights, wellbeing.Insight{
			Type:        wellbeing.InsightTypePattern,
			Title:       "Weekend usage differs",
			Description: fmt.Sprintf("%s is used %.0f%% %s on weekends (%.0f min/day vs %.0f min/day on weekdays)", name, abs, direction, weekendAvg, weekdayAvg),
			Severity:    severity,
			Data: map[string]any{
				"app_id":              appID.String(),
				"app_name":            name,
				"weekend_avg_minutes": usage.RoundMinutes(weekendAvg),
				"weekday_avg_minutes": usage.RoundMinutes(weekdayAvg),
				"diff_pct":            usage.RoundMinutes(diff),
			},
		})
	}
	return insights
}

// detectWeeklyTrend compares the last seven days against the seven before
// them. Needs at least two weeks of window.
func (s *InsightService) detectWeeklyTrend(window *usageWindow, windowDays int) *wellbeing.Insight {
	if windowDays < 14 || len(window.days) < 14 {
		return nil
	}

	var lastWeek, prevWeek float64
	for i, day := range window.days {
		switch {
		case i >= len(window.days)-7:
			lastWeek += window.dailyTotals[day]
		case i >= len(window.days)-14:
			prevWeek += window.dailyTotals[day]
		}
	}
	if prevWeek == 0 {
		return nil
	}

	change := usage.RoundMinutes((lastWeek - prevWeek) / prevWeek * 100)
	abs := change
	if abs < 0 {
		abs = -abs
	}
	if abs <= trendChangePct {
		return nil
	}

	severity := wellbeing.SeverityInfo
	verb := "changed"
	switch {
	case change < trendSuccessPct:
		severity = wellbeing.SeveritySuccess
		verb = "dropped"
	case change > trendWarningPct:
		severity = wellbeing.SeverityWarning
		verb = "climbed"
	}

	return &wellbeing.Insight{
		Type:        wellbeing.InsightTypeTrend,
		Title:       "Week-over-week change",
		Description: fmt.Sprintf("Screen time %s %.1f%% compared to the previous week", verb, abs),
		Severity:    severity,
		Data: map[string]any{
			"last_week_minutes": usage.RoundMinutes(lastWeek),
			"prev_week_minutes": usage.RoundMinutes(prevWeek),
			"change_pct":        change,
		},
	}
}

// detectTopAppShare flags a single app dominating the window.
func (s *InsightService) detectTopAppShare(window *usageWindow) *wellbeing.Insight {
	topApp, share, ok := s.topAppShare(window)
	if !ok || share <= comparisonSharePct {
		return nil
	}

	severity := wellbeing.SeverityInfo
	if share > comparisonWarningPct {
		severity = wellbeing.SeverityWarning
	}
	name := s.appLabel(window, topApp)

	return &wellbeing.Insight{
		Type:        wellbeing.InsightTypeComparison,
		Title:       "One app dominates",
		Description: fmt.Sprintf("%s accounts for %.1f%% of all screen time", name, share),
		Severity:    severity,
		Data: map[string]any{
			"app_id":    topApp.String(),
			"app_name":  name,
			"share_pct": share,
		},
	}
}

// detectProjection extrapolates the current calendar week from the days
// elapsed so far. Needs at least one full week of window.
func (s *InsightService) detectProjection(window *usageWindow, windowDays int) *wellbeing.Insight {
	if windowDays < 7 {
		return nil
	}

	now := s.now()
	weekday := int(now.In(usage.CalendarZone()).Weekday())
	// Weeks run Monday through Sunday.
	daysElapsed := weekday
	if weekday == 0 {
		daysElapsed = 7
	}

	var current float64
	for i := 0; i < daysElapsed && i < len(window.days); i++ {
		day := window.days[len(window.days)-1-i]
		current += window.dailyTotals[day]
	}

	projected := usage.RoundMinutes(current / float64(daysElapsed) * 7)
	if projected <= 0 {
		return nil
	}

	severity := wellbeing.SeverityInfo
	if projected > predictionWarningMinutes {
		severity = wellbeing.SeverityWarning
	}

	return &wellbeing.Insight{
		Type:        wellbeing.InsightTypePrediction,
		Title:       "Weekly projection",
		Description: fmt.Sprintf("On pace for %.0f minutes of screen time this week", projected),
		Severity:    severity,
		Data: map[string]any{
			"projected_minutes": projected,
			"days_elapsed":      daysElapsed,
			"current_minutes":   usage.RoundMinutes(current),
		},
	}
}

// detectGoalProgress surfaces active goals at or past the attention
// threshold.
func (s *InsightService) detectGoalProgress(ctx context.Context, scope directory.Scope, deviceIdentifier string) ([]wellbeing.Insight, error) {
	if s.goals == nil {
		return nil, nil
	}
	progresses, err := s.goals.GetAllGoalProgress(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}

	insights := make([]wellbeing.Insight, 0)
	for _, p := range progresses {
		if !p.NeedsAttention() {
			continue
		}
		severity := wellbeing.SeverityInfo
		if p.Percentage >= wellbeing.WarningThreshold {
			severity = wellbeing.SeverityWarning
		}
		goalID := p.GoalID
		insight := wellbeing.Insight{
			Type:        wellbeing.InsightTypeGoalProgress,
			Title:       "Goal needs attention",
			Description: fmt.Sprintf("%s is at %.1f%% of its %d-minute target", p.GoalName, p.Percentage, p.TargetMinutes),
			Severity:    severity,
			Data: map[string]any{
				"goal_id":         p.GoalID.String(),
				"percentage":      p.Percentage,
				"current_minutes": p.CurrentMinutes,
				"target_minutes":  p.TargetMinutes,
			},
		}
		insights = append(insights,
			insight.WithConfidence(goalInsightConfidence).WithAction(wellbeing.ActionViewGoal, "View goal", &goalID))
	}
	return insights, nil
}

// detectLimitRecommendation suggests a per-app limit when one app dominates
// and no limit exists for it yet.
func (s *InsightService) detectLimitRecommendation(ctx context.Context, deviceID uuid.UUID, window *usageWindow, windowDays int) *wellbeing.Insight {
	topApp, share, ok := s.topAppShare(window)
	if !ok || share <= recommendationSharePct {
		return nil
	}

	exists, err := s.limitRepo.ExistsForApp(ctx, deviceID, topApp)
	if err != nil {
		s.logger.Warn("Limit lookup failed",
			zap.String("device_id", deviceID.String()),
			zap.Error(err))
		return nil
	}
	if exists {
		return nil
	}

	name := s.appLabel(window, topApp)
	if s.publisher != nil && s.markRecommended(deviceID, topApp) {
		if err := s.publisher.Publish(ctx, wellbeing.NewLimitRecommendedEvent(deviceID, topApp, name, share, windowDays)); err != nil {
			s.logger.Warn("Failed to publish limit recommendation", zap.Error(err))
		}
	}

	appID := topApp
	insight := wellbeing.Insight{
		Type:        wellbeing.InsightTypeRecommendation,
		Title:       "Consider a daily limit",
		Description: fmt.Sprintf("%s takes up %.1f%% of screen time; a daily limit could help", name, share),
		Severity:    wellbeing.SeverityInfo,
		Data: map[string]any{
			"app_id":    topApp.String(),
			"app_name":  name,
			"share_pct": share,
		},
	}
	result := insight.WithConfidence(recommendationConfidence).WithAction(wellbeing.ActionSetLimit, "Set a limit", &appID)
	return &result
}

// markRecommended records the pair and reports whether it was new.
func (s *InsightService) markRecommended(deviceID, appID uuid.UUID) bool {
	key := deviceID.String() + "/" + appID.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.recommended[key]; seen {
		return false
	}
	s.recommended[key] = struct{}{}
	return true
}

func (s *InsightService) topAppShare(window *usageWindow) (uuid.UUID, float64, bool) {
	if window.totalMinutes == 0 {
		return uuid.Nil, 0, false
	}
	var (
		topApp uuid.UUID
		topMin float64
		found  bool
	)
	for _, appID := range window.appOrder {
		if !found || window.appTotals[appID] > topMin {
			topApp, topMin, found = appID, window.appTotals[appID], true
		}
	}
	if !found {
		return uuid.Nil, 0, false
	}
	return topApp, usage.RoundMinutes(topMin / window.totalMinutes * 100), true
}

func (s *InsightService) appLabel(window *usageWindow, appID uuid.UUID) string {
	if name, ok := window.appNames[appID]; ok {
		return name
	}
	return appID.String()
}

func (s *InsightService) resolveDevice(ctx context.Context, scope directory.Scope, identifier string) (*directory.Device, error) {
	if identifier == "" {
		return nil, shared.ErrDeviceNotRegistered
	}
	device, err := s.deviceRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrDeviceNotRegistered
		}
		return nil, err
	}
	if !scope.CanAccess(device) {
		return nil, shared.ErrForbidden
	}
	return device, nil
}
