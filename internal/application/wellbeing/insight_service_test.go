package wellbeing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/usage"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// insightTestNow is a Monday; the projection detector divides by the days
// elapsed in the calendar week.
var insightTestNow = time.Date(2024, 1, 15, 20, 0, 0, 0, usage.CalendarZone())

// fakeUsageReader serves canned per-day rows keyed by day.
type fakeUsageReader struct {
	rows map[string][]usage.AggregateRow
}

func (f *fakeUsageReader) RangeRowsForDevice(_ context.Context, _ uuid.UUID, startKey, _ string) ([]usage.AggregateRow, string, error) {
	return f.rows[startKey], usage.SourceSessions, nil
}

// fakeProgressSource serves canned goal progress.
type fakeProgressSource struct {
	progresses []wellbeing.Progress
}

func (f *fakeProgressSource) GetAllGoalProgress(context.Context, directory.Scope, string) ([]wellbeing.Progress, error) {
	return f.progresses, nil
}

func newInsightFixture(rows map[string][]usage.AggregateRow, progresses []wellbeing.Progress) (*InsightService, *mockLimitRepo, *directory.Device, directory.Scope) {
	limitRepo := new(mockLimitRepo)
	deviceRepo := new(mockDeviceRepo)
	publisher := new(mockPublisher)

	device, _ := directory.NewDevice(uuid.New(), "device-1", "Kid's phone", "android")
	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := NewInsightService(limitRepo, deviceRepo,
		&fakeUsageReader{rows: rows},
		&fakeProgressSource{progresses: progresses},
		publisher, zap.NewNop())
	svc.WithClock(func() time.Time { return insightTestNow })
	return svc, limitRepo, device, directory.OwnerScope(device.OwnerID)
}

func minuteRows(appID uuid.UUID, name string, minutes float64) []usage.AggregateRow {
	return []usage.AggregateRow{{
		AppID:        appID,
		AppName:      name,
		TotalSeconds: int64(minutes * 60),
		TotalMinutes: minutes,
		Source:       usage.SourceSessions,
	}}
}

func findInsight(insights []wellbeing.Insight, insightType wellbeing.InsightType) *wellbeing.Insight {
	for i := range insights {
		if insights[i].Type == insightType {
			return &insights[i]
		}
	}
	return nil
}

func TestGetInsightsEmptyWindow(t *testing.T) {
	svc, _, _, scope := newInsightFixture(map[string][]usage.AggregateRow{}, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
	require.NoError(t, err)

	assert.NotNil(t, insights)
	assert.Empty(t, insights)
}

// weekendSplitRows builds a 14-day window (Jan 2–15) with one per-day figure
// for weekend days and another for weekdays.
func weekendSplitRows(appID uuid.UUID, name string, weekendMinutes, weekdayMinutes float64) map[string][]usage.AggregateRow {
	rows := map[string][]usage.AggregateRow{}
	for day := 2; day <= 15; day++ {
		date := time.Date(2024, 1, day, 0, 0, 0, 0, usage.CalendarZone())
		minutes := weekdayMinutes
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			minutes = weekendMinutes
		}
		if minutes > 0 {
			rows[date.Format(usage.DateKeyLayout)] = minuteRows(appID, name, minutes)
		}
	}
	return rows
}

func TestWeekendPatternDetector(t *testing.T) {
	game := uuid.New()
	// 200 min/day on the window's 4 weekend days, 10 min/day on the 10
	// weekdays: a +1900% divergence.
	rows := weekendSplitRows(game, "Game", 200, 10)
	svc, limitRepo, _, scope := newInsightFixture(rows, nil)
	limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
	require.NoError(t, err)

	pattern := findInsight(insights, wellbeing.InsightTypePattern)
	require.NotNil(t, pattern)
	assert.Equal(t, wellbeing.SeverityWarning, pattern.Severity)
	assert.Equal(t, "Game", pattern.Data["app_name"])
	assert.Equal(t, 200.0, pattern.Data["weekend_avg_minutes"])
	assert.Equal(t, 10.0, pattern.Data["weekday_avg_minutes"])
	assert.Equal(t, 1900.0, pattern.Data["diff_pct"])
}

func TestWeekendPatternPercentThresholds(t *testing.T) {
	game := uuid.New()

	t.Run("small absolute gap still warns when the ratio is high", func(t *testing.T) {
		// 12 vs 5 min/day is only 7 minutes apart but +140%.
		rows := weekendSplitRows(game, "Game", 12, 5)
		svc, limitRepo, _, scope := newInsightFixture(rows, nil)
		limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

		insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
		require.NoError(t, err)

		pattern := findInsight(insights, wellbeing.InsightTypePattern)
		require.NotNil(t, pattern)
		assert.Equal(t, wellbeing.SeverityWarning, pattern.Severity)
		assert.Equal(t, 140.0, pattern.Data["diff_pct"])
	})

	t.Run("moderate divergence is info", func(t *testing.T) {
		// 14 vs 10 min/day: +40%, past the emission bar but under warning.
		rows := weekendSplitRows(game, "Game", 14, 10)
		svc, limitRepo, _, scope := newInsightFixture(rows, nil)
		limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

		insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
		require.NoError(t, err)

		pattern := findInsight(insights, wellbeing.InsightTypePattern)
		require.NotNil(t, pattern)
		assert.Equal(t, wellbeing.SeverityInfo, pattern.Severity)
	})

	t.Run("no emission under the percent bar", func(t *testing.T) {
		// 11 vs 10 min/day: +10%.
		rows := weekendSplitRows(game, "Game", 11, 10)
		svc, limitRepo, _, scope := newInsightFixture(rows, nil)
		limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

		insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
		require.NoError(t, err)

		assert.Nil(t, findInsight(insights, wellbeing.InsightTypePattern))
	})

	t.Run("no emission when one side is silent", func(t *testing.T) {
		// Weekend-only usage has no weekday average to compare against.
		rows := weekendSplitRows(game, "Game", 200, 0)
		svc, limitRepo, _, scope := newInsightFixture(rows, nil)
		limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

		insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
		require.NoError(t, err)

		assert.Nil(t, findInsight(insights, wellbeing.InsightTypePattern))
	})
}

func TestWeekendPatternPerApp(t *testing.T) {
	game := uuid.New()
	chat := uuid.New()
	// Both apps diverge past the bar; each gets its own insight.
	rows := map[string][]usage.AggregateRow{}
	for day := 2; day <= 15; day++ {
		date := time.Date(2024, 1, day, 0, 0, 0, 0, usage.CalendarZone())
		gameMinutes, chatMinutes := 10.0, 60.0
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			gameMinutes, chatMinutes = 100.0, 20.0
		}
		rows[date.Format(usage.DateKeyLayout)] = []usage.AggregateRow{
			{AppID: game, AppName: "Game", TotalMinutes: gameMinutes},
			{AppID: chat, AppName: "Chat", TotalMinutes: chatMinutes},
		}
	}
	svc, limitRepo, _, scope := newInsightFixture(rows, nil)
	limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
	require.NoError(t, err)

	var patterns []wellbeing.Insight
	for _, insight := range insights {
		if insight.Type == wellbeing.InsightTypePattern {
			patterns = append(patterns, insight)
		}
	}
	require.Len(t, patterns, 2)
	// Game: 100 vs 10 min/day, +900%. Chat: 20 vs 60 min/day, -66.67%.
	assert.Equal(t, "Game", patterns[0].Data["app_name"])
	assert.Equal(t, wellbeing.SeverityWarning, patterns[0].Severity)
	assert.Equal(t, "Chat", patterns[1].Data["app_name"])
	assert.Equal(t, wellbeing.SeverityInfo, patterns[1].Severity)
	assert.Equal(t, -66.67, patterns[1].Data["diff_pct"])
}

func TestWeeklyTrendDetectorSuccessOnDrop(t *testing.T) {
	game := uuid.New()
	rows := map[string][]usage.AggregateRow{}
	// Previous week 100 min/day, last week 50 min/day: a 50% drop.
	for day := 2; day <= 8; day++ {
		rows[time.Date(2024, 1, day, 0, 0, 0, 0, usage.CalendarZone()).Format(usage.DateKeyLayout)] = minuteRows(game, "Game", 100)
	}
	for day := 9; day <= 15; day++ {
		rows[time.Date(2024, 1, day, 0, 0, 0, 0, usage.CalendarZone()).Format(usage.DateKeyLayout)] = minuteRows(game, "Game", 50)
	}
	svc, limitRepo, _, scope := newInsightFixture(rows, nil)
	limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
	require.NoError(t, err)

	trend := findInsight(insights, wellbeing.InsightTypeTrend)
	require.NotNil(t, trend)
	assert.Equal(t, wellbeing.SeveritySuccess, trend.Severity)
	assert.Equal(t, -50.0, trend.Data["change_pct"])
}

func TestWeeklyTrendNeedsTwoWeeks(t *testing.T) {
	game := uuid.New()
	rows := map[string][]usage.AggregateRow{
		"2024-01-15": minuteRows(game, "Game", 100),
	}
	svc, limitRepo, _, scope := newInsightFixture(rows, nil)
	limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 7)
	require.NoError(t, err)

	assert.Nil(t, findInsight(insights, wellbeing.InsightTypeTrend))
}

func TestTopAppShareAndLimitRecommendation(t *testing.T) {
	game := uuid.New()
	chat := uuid.New()
	rows := map[string][]usage.AggregateRow{
		"2024-01-15": {
			{AppID: game, AppName: "Game", TotalSeconds: 360 * 60, TotalMinutes: 360},
			{AppID: chat, AppName: "Chat", TotalSeconds: 240 * 60, TotalMinutes: 240},
		},
	}
	svc, limitRepo, device, scope := newInsightFixture(rows, nil)
	limitRepo.On("ExistsForApp", mock.Anything, device.ID, game).Return(false, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
	require.NoError(t, err)

	comparison := findInsight(insights, wellbeing.InsightTypeComparison)
	require.NotNil(t, comparison)
	// Game holds 60% of the window: past the 50% warning bar.
	assert.Equal(t, wellbeing.SeverityWarning, comparison.Severity)
	assert.Equal(t, 60.0, comparison.Data["share_pct"])

	recommendation := findInsight(insights, wellbeing.InsightTypeRecommendation)
	require.NotNil(t, recommendation)
	require.NotNil(t, recommendation.Confidence)
	assert.Equal(t, 75, *recommendation.Confidence)
	require.NotNil(t, recommendation.Action)
	assert.Equal(t, wellbeing.ActionSetLimit, recommendation.Action.Type)
	assert.Equal(t, game, *recommendation.Action.TargetID)
}

func TestNoRecommendationWhenLimitExists(t *testing.T) {
	game := uuid.New()
	rows := map[string][]usage.AggregateRow{
		"2024-01-15": minuteRows(game, "Game", 600),
	}
	svc, limitRepo, device, scope := newInsightFixture(rows, nil)
	limitRepo.On("ExistsForApp", mock.Anything, device.ID, game).Return(true, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
	require.NoError(t, err)

	assert.Nil(t, findInsight(insights, wellbeing.InsightTypeRecommendation))
}

func TestProjectionDetectorWarnsOnHeavyPace(t *testing.T) {
	game := uuid.New()
	// Monday with 500 minutes already: projected 3500 for the week.
	rows := map[string][]usage.AggregateRow{
		"2024-01-15": minuteRows(game, "Game", 500),
	}
	svc, limitRepo, _, scope := newInsightFixture(rows, nil)
	limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
	require.NoError(t, err)

	prediction := findInsight(insights, wellbeing.InsightTypePrediction)
	require.NotNil(t, prediction)
	assert.Equal(t, wellbeing.SeverityWarning, prediction.Severity)
	assert.Equal(t, 3500.0, prediction.Data["projected_minutes"])
	assert.Equal(t, 1, prediction.Data["days_elapsed"])
}

func TestProjectionNeedsFullWeekWindow(t *testing.T) {
	game := uuid.New()
	rows := map[string][]usage.AggregateRow{
		"2024-01-15": minuteRows(game, "Game", 120),
	}
	svc, limitRepo, _, scope := newInsightFixture(rows, nil)
	limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 3)
	require.NoError(t, err)

	assert.Nil(t, findInsight(insights, wellbeing.InsightTypePrediction))
}

func TestLimitRecommendationPublishesOnce(t *testing.T) {
	game := uuid.New()
	rows := map[string][]usage.AggregateRow{
		"2024-01-15": minuteRows(game, "Game", 600),
	}

	limitRepo := new(mockLimitRepo)
	deviceRepo := new(mockDeviceRepo)
	publisher := new(mockPublisher)

	device, _ := directory.NewDevice(uuid.New(), "device-1", "Kid's phone", "android")
	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	limitRepo.On("ExistsForApp", mock.Anything, device.ID, game).Return(false, nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	svc := NewInsightService(limitRepo, deviceRepo,
		&fakeUsageReader{rows: rows},
		&fakeProgressSource{},
		publisher, zap.NewNop())
	svc.WithClock(func() time.Time { return insightTestNow })
	scope := directory.OwnerScope(device.OwnerID)

	for i := 0; i < 3; i++ {
		insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
		require.NoError(t, err)
		// The insight itself stays on every read; only the event is deduped.
		require.NotNil(t, findInsight(insights, wellbeing.InsightTypeRecommendation))
	}

	publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestGoalProgressDetectorSeverityBands(t *testing.T) {
	game := uuid.New()
	rows := map[string][]usage.AggregateRow{
		"2024-01-15": minuteRows(game, "Game", 30),
	}
	atRisk := wellbeing.Progress{GoalID: uuid.New(), GoalName: "Daily cap", TargetMinutes: 60, CurrentMinutes: 51, Percentage: 85, Status: wellbeing.ProgressAtRisk}
	nearLimit := wellbeing.Progress{GoalID: uuid.New(), GoalName: "Weekly cap", TargetMinutes: 300, CurrentMinutes: 285, Percentage: 95, Status: wellbeing.ProgressAtRisk}
	fine := wellbeing.Progress{GoalID: uuid.New(), GoalName: "App cap", TargetMinutes: 30, CurrentMinutes: 10, Percentage: 33.33, Status: wellbeing.ProgressOnTrack}

	svc, limitRepo, _, scope := newInsightFixture(rows, []wellbeing.Progress{atRisk, nearLimit, fine})
	limitRepo.On("ExistsForApp", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
	require.NoError(t, err)

	var goalInsights []wellbeing.Insight
	for _, insight := range insights {
		if insight.Type == wellbeing.InsightTypeGoalProgress {
			goalInsights = append(goalInsights, insight)
		}
	}
	// Only the two goals past 80% surface.
	require.Len(t, goalInsights, 2)

	assert.Equal(t, wellbeing.SeverityInfo, goalInsights[0].Severity)
	assert.Equal(t, wellbeing.SeverityWarning, goalInsights[1].Severity)
	for _, gi := range goalInsights {
		require.NotNil(t, gi.Confidence)
		assert.Equal(t, 100, *gi.Confidence)
		require.NotNil(t, gi.Action)
		assert.Equal(t, wellbeing.ActionViewGoal, gi.Action.Type)
	}
}

func TestInsightBatteryOrder(t *testing.T) {
	game := uuid.New()
	rows := map[string][]usage.AggregateRow{}
	// Heavier weekends and a lighter second week, so every detector fires.
	for day := 2; day <= 15; day++ {
		date := time.Date(2024, 1, day, 0, 0, 0, 0, usage.CalendarZone())
		minutes := 150.0
		if day >= 9 {
			minutes = 50.0
		}
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			minutes += 200
		}
		rows[date.Format(usage.DateKeyLayout)] = minuteRows(game, "Game", minutes)
	}
	progress := wellbeing.Progress{GoalID: uuid.New(), GoalName: "Daily cap", TargetMinutes: 60, CurrentMinutes: 57, Percentage: 95, Status: wellbeing.ProgressAtRisk}

	svc, limitRepo, device, scope := newInsightFixture(rows, []wellbeing.Progress{progress})
	limitRepo.On("ExistsForApp", mock.Anything, device.ID, game).Return(false, nil)

	insights, err := svc.GetInsights(context.Background(), scope, "device-1", 14)
	require.NoError(t, err)

	var order []wellbeing.InsightType
	for _, insight := range insights {
		order = append(order, insight.Type)
	}
	// Battery order: pattern detectors first, recommendation last.
	expected := []wellbeing.InsightType{
		wellbeing.InsightTypePattern,
		wellbeing.InsightTypeTrend,
		wellbeing.InsightTypeComparison,
		wellbeing.InsightTypePrediction,
		wellbeing.InsightTypeGoalProgress,
		wellbeing.InsightTypeRecommendation,
	}
	assert.Equal(t, expected, order)
}
