package usage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/usage"
)

// DefaultPeakWindowDays is the lookback window for peak-hour profiles when
// the caller does not specify one.
const DefaultPeakWindowDays = 7

// HourlyService handles hour-of-day breakdowns and peak-usage profiles.
//
// Hour buckets attribute each event wholly to the hour its occurred-at
// instant falls in; events are not clipped across hour boundaries. Hourly
// totals therefore need not match the clipped daily totals exactly.
type HourlyService struct {
	eventRepo  usage.UsageEventRepository
	deviceRepo directory.DeviceRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewHourlyService creates a new HourlyService
func NewHourlyService(
	eventRepo usage.UsageEventRepository,
	deviceRepo directory.DeviceRepository,
	logger *zap.Logger,
) *HourlyService {
	return &HourlyService{
		eventRepo:  eventRepo,
		deviceRepo: deviceRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *HourlyService) WithClock(now func() time.Time) *HourlyService {
	s.now = now
	return s
}

// GetHourlyUsage returns the dense 24-bucket breakdown for one device and
// one day.
func (s *HourlyService) GetHourlyUsage(ctx context.Context, scope directory.Scope, deviceIdentifier, dateKey string) (*usage.DayHourlyUsage, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}

	start, end, day := usage.DayBounds(dateKey, s.now())
	events, err := s.eventRepo.FindEndingWithin(ctx, []uuid.UUID{device.ID}, start, end)
	if err != nil {
		return nil, err
	}

	breakdown := s.bucketDay(day, events)
	return &breakdown, nil
}

// GetDailyHourly returns per-day hourly breakdowns over an inclusive span,
// ordered by date ascending. Every day in the span is present, zeroed when
// empty.
func (s *HourlyService) GetDailyHourly(ctx context.Context, scope directory.Scope, deviceIdentifier, startKey, endKey string) ([]usage.DayHourlyUsage, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}

	now := s.now()
	start, end, sKey, eKey := usage.RangeBounds(startKey, endKey, now)
	days := usage.DateKeysBetween(sKey, eKey, now)

	events, err := s.eventRepo.FindEndingWithin(ctx, []uuid.UUID{device.ID}, start, end)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]*usage.UsageEvent)
	for _, event := range events {
		key := usage.DateKeyOf(event.OccurredAt)
		byDay[key] = append(byDay[key], event)
	}

	result := make([]usage.DayHourlyUsage, 0, len(days))
	for _, day := range days {
		result = append(result, s.bucketDay(day, byDay[day]))
	}
	return result, nil
}

// GetPeakHours returns the device's peak-usage profile over the trailing
// window ending today. For each hour, the average is taken over only the
// days that had at least one event in that hour; silent days do not dilute
// it. The result always has all 24 hours, zeroed when silent, ordered by
// average minutes descending.
func (s *HourlyService) GetPeakHours(ctx context.Context, scope directory.Scope, deviceIdentifier string, windowDays int) ([]usage.PeakHour, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = DefaultPeakWindowDays
	}

	now := s.now()
	endKey := usage.DateKeyOf(now)
	_, end, _ := usage.DayBounds(endKey, now)
	start, _, startKey := usage.DayBounds(usage.DateKeyOf(now.AddDate(0, 0, -(windowDays-1))), now)

	events, err := s.eventRepo.FindEndingWithin(ctx, []uuid.UUID{device.ID}, start, end)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Building peak-hour profile",
		zap.String("device_id", device.ID.String()),
		zap.String("from", startKey),
		zap.String("to", endKey),
		zap.Int("events", len(events)))

	var totalSeconds [24]int64
	activeDays := [24]map[string]struct{}{}
	for _, event := range events {
		hour := usage.HourOf(event.OccurredAt)
		totalSeconds[hour] += int64(event.DurationSeconds)
		if activeDays[hour] == nil {
			activeDays[hour] = make(map[string]struct{})
		}
		activeDays[hour][usage.DateKeyOf(event.OccurredAt)] = struct{}{}
	}

	peaks := make([]usage.PeakHour, 0, 24)
	for hour := 0; hour < 24; hour++ {
		days := len(activeDays[hour])
		var average float64
		if days > 0 {
			average = usage.MinutesFromSeconds(totalSeconds[hour]) / float64(days)
		}
		peaks = append(peaks, usage.PeakHour{
			Hour:           hour,
			AverageMinutes: usage.RoundMinutes(average),
			ActiveDays:     days,
		})
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].AverageMinutes > peaks[j].AverageMinutes
	})
	return peaks, nil
}

// bucketDay folds events into the day's dense 24-bucket breakdown. Only
// events whose occurred-at falls on the given day contribute.
func (s *HourlyService) bucketDay(day string, events []*usage.UsageEvent) usage.DayHourlyUsage {
	breakdown := usage.NewDayHourlyUsage(day)

	var seconds [24]int64
	apps := [24]map[uuid.UUID]struct{}{}
	for _, event := range events {
		if usage.DateKeyOf(event.OccurredAt) != day {
			continue
		}
		hour := usage.HourOf(event.OccurredAt)
		seconds[hour] += int64(event.DurationSeconds)
		if apps[hour] == nil {
			apps[hour] = make(map[uuid.UUID]struct{})
		}
		apps[hour][event.AppID] = struct{}{}
	}

	var daySeconds int64
	for hour := 0; hour < 24; hour++ {
		breakdown.Hours[hour].TotalMinutes = usage.MinutesFromSeconds(seconds[hour])
		breakdown.Hours[hour].AppCount = len(apps[hour])
		daySeconds += seconds[hour]
	}
	breakdown.TotalMinutes = usage.MinutesFromSeconds(daySeconds)
	return breakdown
}

func (s *HourlyService) resolveDevice(ctx context.Context, scope directory.Scope, identifier string) (*directory.Device, error) {
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
