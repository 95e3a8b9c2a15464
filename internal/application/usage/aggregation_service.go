package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/usage"
)

// AggregationService handles the read path: per-app daily, weekly and
// arbitrary-range summaries.
//
// Every query picks exactly one source. If any snapshot rows exist for the
// queried devices and days, the whole result is built from snapshots;
// otherwise it is built by clipping raw events. The two are never mixed
// within one response.
type AggregationService struct {
	eventRepo    usage.UsageEventRepository
	snapshotRepo usage.DailySnapshotRepository
	deviceRepo   directory.DeviceRepository
	appRepo      directory.AppRepository
	cache        SummaryCache
	cacheTTL     time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(
	eventRepo usage.UsageEventRepository,
	snapshotRepo usage.DailySnapshotRepository,
	deviceRepo directory.DeviceRepository,
	appRepo directory.AppRepository,
	cache SummaryCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *AggregationService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AggregationService{
		eventRepo:    eventRepo,
		snapshotRepo: snapshotRepo,
		deviceRepo:   deviceRepo,
		appRepo:      appRepo,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *AggregationService) WithClock(now func() time.Time) *AggregationService {
	s.now = now
	return s
}

// GetDailySummary returns the per-app breakdown for one device and one
// calendar day. An empty or malformed date key falls back to today.
func (s *AggregationService) GetDailySummary(ctx context.Context, scope directory.Scope, deviceIdentifier, dateKey string) (*DailySummary, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}

	start, end, day := usage.DayBounds(dateKey, s.now())

	cacheKey := fmt.Sprintf("summary:daily:%s:%s", device.ID, day)
	if s.cache != nil {
		var cached DailySummary
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	rows, source, err := s.aggregate(ctx, []uuid.UUID{device.ID}, start, end, []string{day})
	if err != nil {
		return nil, err
	}

	summary := &DailySummary{
		Date:         day,
		TotalSeconds: usage.SumSeconds(rows),
		Source:       source,
		Apps:         rows,
	}
	summary.TotalMinutes = usage.MinutesFromSeconds(summary.TotalSeconds)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache daily summary", zap.Error(err))
		}
	}
	return summary, nil
}

// GetWeeklySummary returns the per-app breakdown for the seven days starting
// at the given day key.
func (s *AggregationService) GetWeeklySummary(ctx context.Context, scope directory.Scope, deviceIdentifier, startKey string) (*RangeSummary, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}

	now := s.now()
	start, end, sKey := usage.WeekBounds(startKey, now)
	days := usage.DateKeysBetween(sKey, usage.DateKeyOf(end), now)

	rows, source, err := s.aggregate(ctx, []uuid.UUID{device.ID}, start, end, days)
	if err != nil {
		return nil, err
	}
	return s.rangeSummary(sKey, usage.DateKeyOf(end), rows, source), nil
}

// GetRangeSummary returns the per-app breakdown over an inclusive span of
// days. Inverted bounds are swapped rather than rejected.
func (s *AggregationService) GetRangeSummary(ctx context.Context, scope directory.Scope, deviceIdentifier, startKey, endKey string) (*RangeSummary, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}
	return s.rangeForDevices(ctx, []uuid.UUID{device.ID}, startKey, endKey)
}

// GetCombinedDailySummary returns one day's breakdown unioned across every
// device the scope may see.
func (s *AggregationService) GetCombinedDailySummary(ctx context.Context, scope directory.Scope, dateKey string) (*DailySummary, error) {
	deviceIDs, err := s.scopedDeviceIDs(ctx, scope)
	if err != nil {
		return nil, err
	}

	start, end, day := usage.DayBounds(dateKey, s.now())
	rows, source, err := s.aggregate(ctx, deviceIDs, start, end, []string{day})
	if err != nil {
		return nil, err
	}

	summary := &DailySummary{
		Date:         day,
		TotalSeconds: usage.SumSeconds(rows),
		Source:       source,
		Apps:         rows,
	}
	summary.TotalMinutes = usage.MinutesFromSeconds(summary.TotalSeconds)
	return summary, nil
}

// GetCombinedRangeSummary returns a span's breakdown unioned across every
// device the scope may see.
func (s *AggregationService) GetCombinedRangeSummary(ctx context.Context, scope directory.Scope, startKey, endKey string) (*RangeSummary, error) {
	deviceIDs, err := s.scopedDeviceIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	return s.rangeForDevices(ctx, deviceIDs, startKey, endKey)
}

// RangeRowsForDevice exposes the raw aggregation for other services (goal
// evaluation, insights) without the summary envelope.
func (s *AggregationService) RangeRowsForDevice(ctx context.Context, deviceID uuid.UUID, startKey, endKey string) ([]usage.AggregateRow, string, error) {
	now := s.now()
	start, end, sKey, eKey := usage.RangeBounds(startKey, endKey, now)
	days := usage.DateKeysBetween(sKey, eKey, now)
	return s.aggregate(ctx, []uuid.UUID{deviceID}, start, end, days)
}

func (s *AggregationService) rangeForDevices(ctx context.Context, deviceIDs []uuid.UUID, startKey, endKey string) (*RangeSummary, error) {
	now := s.now()
	start, end, sKey, eKey := usage.RangeBounds(startKey, endKey, now)
	days := usage.DateKeysBetween(sKey, eKey, now)

	rows, source, err := s.aggregate(ctx, deviceIDs, start, end, days)
	if err != nil {
		return nil, err
	}
	return s.rangeSummary(sKey, eKey, rows, source), nil
}

func (s *AggregationService) rangeSummary(startKey, endKey string, rows []usage.AggregateRow, source string) *RangeSummary {
	summary := &RangeSummary{
		StartDate:    startKey,
		EndDate:      endKey,
		TotalSeconds: usage.SumSeconds(rows),
		Source:       source,
		Apps:         rows,
	}
	summary.TotalMinutes = usage.MinutesFromSeconds(summary.TotalSeconds)
	return summary
}

// aggregate builds the per-app rows for the given devices over [start, end].
// Source selection happens here, once per query.
func (s *AggregationService) aggregate(ctx context.Context, deviceIDs []uuid.UUID, start, end time.Time, days []string) ([]usage.AggregateRow, string, error) {
	if len(deviceIDs) == 0 {
		return []usage.AggregateRow{}, usage.SourceSessions, nil
	}

	hasSnapshots, err := s.snapshotRepo.ExistsForDays(ctx, deviceIDs, days)
	if err != nil {
		return nil, "", err
	}

	if hasSnapshots {
		rows, err := s.aggregateSnapshots(ctx, deviceIDs, days)
		if err != nil {
			return nil, "", err
		}
		return rows, usage.SourceSnapshots, nil
	}

	rows, err := s.aggregateEvents(ctx, deviceIDs, start, end)
	if err != nil {
		return nil, "", err
	}
	return rows, usage.SourceSessions, nil
}

func (s *AggregationService) aggregateSnapshots(ctx context.Context, deviceIDs []uuid.UUID, days []string) ([]usage.AggregateRow, error) {
	snapshots, err := s.snapshotRepo.FindForDays(ctx, deviceIDs, days)
	if err != nil {
		return nil, err
	}

	totals := map[uuid.UUID]int64{}
	order := make([]uuid.UUID, 0, len(snapshots))
	for _, snap := range snapshots {
		if _, seen := totals[snap.AppID]; !seen {
			order = append(order, snap.AppID)
		}
		totals[snap.AppID] += int64(snap.TotalMinutes) * 60
	}

	rows := make([]usage.AggregateRow, 0, len(order))
	for _, appID := range order {
		seconds := totals[appID]
		rows = append(rows, usage.AggregateRow{
			AppID:        appID,
			TotalSeconds: seconds,
			TotalMinutes: usage.MinutesFromSeconds(seconds),
			Source:       usage.SourceSnapshots,
		})
	}
	return s.finishRows(ctx, rows)
}

func (s *AggregationService) aggregateEvents(ctx context.Context, deviceIDs []uuid.UUID, start, end time.Time) ([]usage.AggregateRow, error) {
	events, err := s.eventRepo.FindOverlapping(ctx, deviceIDs, start, end)
	if err != nil {
		return nil, err
	}

	type tally struct {
		seconds  int64
		sessions int64
	}
	totals := map[uuid.UUID]*tally{}
	order := make([]uuid.UUID, 0, len(events))
	for _, event := range events {
		clipped := event.ClippedSeconds(start, end)
		if clipped <= 0 {
			continue
		}
		t, seen := totals[event.AppID]
		if !seen {
			t = &tally{}
			totals[event.AppID] = t
			order = append(order, event.AppID)
		}
		t.seconds += int64(clipped)
		t.sessions++
	}

	rows := make([]usage.AggregateRow, 0, len(order))
	for _, appID := range order {
		t := totals[appID]
		rows = append(rows, usage.AggregateRow{
			AppID:        appID,
			TotalSeconds: t.seconds,
			TotalMinutes: usage.MinutesFromSeconds(t.seconds),
			Sessions:     t.sessions,
			Source:       usage.SourceSessions,
		})
	}
	return s.finishRows(ctx, rows)
}

// finishRows fills in app directory metadata and applies the stable
// descending order.
func (s *AggregationService) finishRows(ctx context.Context, rows []usage.AggregateRow) ([]usage.AggregateRow, error) {
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.AppID
	}
	apps, err := s.appRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*directory.App, len(apps))
	for _, app := range apps {
		byID[app.ID] = app
	}
	for i := range rows {
		if app, ok := byID[rows[i].AppID]; ok {
			rows[i].PackageName = app.PackageName
			rows[i].AppName = app.Name
		}
	}

	usage.SortRows(rows)
	return rows, nil
}

func (s *AggregationService) resolveDevice(ctx context.Context, scope directory.Scope, identifier string) (*directory.Device, error) {
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

func (s *AggregationService) scopedDeviceIDs(ctx context.Context, scope directory.Scope) ([]uuid.UUID, error) {
	var (
		devices []*directory.Device
		err     error
	)
	if scope.Elevated {
		devices, err = s.deviceRepo.FindAll(ctx)
	} else {
		devices, err = s.deviceRepo.FindByOwner(ctx, scope.UserID)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(devices))
	for i, d := range devices {
		ids[i] = d.ID
	}
	return ids, nil
}
