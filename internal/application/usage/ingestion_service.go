package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/usage"
)

// SummaryCache caches computed summaries and drops them when new data for a
// device arrives. Implementations must treat misses and backend failures the
// same way: report not-found and let the caller recompute.
type SummaryCache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidateDevice(ctx context.Context, deviceID uuid.UUID) error
}

// IngestionService handles the write path: raw usage events and daily
// snapshot batches reported by devices.
type IngestionService struct {
	eventRepo    usage.UsageEventRepository
	snapshotRepo usage.DailySnapshotRepository
	deviceRepo   directory.DeviceRepository
	appRepo      directory.AppRepository
	publisher    shared.EventPublisher
	cache        SummaryCache
	logger       *zap.Logger
	now          func() time.Time
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(
	eventRepo usage.UsageEventRepository,
	snapshotRepo usage.DailySnapshotRepository,
	deviceRepo directory.DeviceRepository,
	appRepo directory.AppRepository,
	publisher shared.EventPublisher,
	cache SummaryCache,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		eventRepo:    eventRepo,
		snapshotRepo: snapshotRepo,
		deviceRepo:   deviceRepo,
		appRepo:      appRepo,
		publisher:    publisher,
		cache:        cache,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *IngestionService) WithClock(now func() time.Time) *IngestionService {
	s.now = now
	return s
}

// RecordEvent ingests one usage event. Ingestion is idempotent: a command
// carrying an event ID that was already stored, or matching a near-duplicate
// within the dedup window, acks with the stored event instead of writing a
// second row.
func (s *IngestionService) RecordEvent(ctx context.Context, cmd RecordEventCommand) (*RecordEventResult, error) {
	device, err := s.resolveDevice(ctx, cmd.DeviceIdentifier)
	if err != nil {
		return nil, err
	}

	app, err := s.findOrCreateApp(ctx, cmd.PackageName, cmd.AppName)
	if err != nil {
		return nil, err
	}

	// Event-ID idempotency: the first stored event under a device's event ID
	// wins, regardless of payload differences on retry.
	if cmd.EventID != "" {
		existing, err := s.eventRepo.FindByClientEventID(ctx, device.ID, cmd.EventID)
		if err == nil {
			return &RecordEventResult{UsageEventID: existing.ID, Duplicate: true}, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	occurredAt := cmd.Timestamp
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	event, clamped, err := usage.NewUsageEvent(device.ID, app.ID, cmd.DurationSeconds, occurredAt, cmd.EventID)
	if err != nil {
		return nil, err
	}
	if clamped {
		s.logger.Warn("Clamped implausible event duration",
			zap.String("device_id", device.ID.String()),
			zap.String("package", app.PackageName),
			zap.Float64("reported_seconds", cmd.DurationSeconds))
	}

	// Without an event ID, fall back to the near-duplicate window.
	if cmd.EventID == "" {
		existing, err := s.eventRepo.FindNearDuplicate(ctx, device.ID, app.ID, event.DurationSeconds, event.OccurredAt, usage.DedupWindow)
		if err == nil {
			return &RecordEventResult{UsageEventID: existing.ID, Duplicate: true}, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	if err := s.eventRepo.Save(ctx, event); err != nil {
		// A concurrent retry may have raced us past the idempotency lookup.
		if cmd.EventID != "" && errors.Is(err, shared.ErrAlreadyExists) {
			if existing, lookupErr := s.eventRepo.FindByClientEventID(ctx, device.ID, cmd.EventID); lookupErr == nil {
				return &RecordEventResult{UsageEventID: existing.ID, Duplicate: true}, nil
			}
		}
		s.logger.Error("Failed to save usage event",
			zap.String("device_id", device.ID.String()),
			zap.Error(err))
		return nil, err
	}

	s.touchDevice(ctx, device)
	s.invalidate(ctx, device.ID)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, usage.NewUsageRecordedEvent(event, clamped)); err != nil {
			s.logger.Warn("Failed to publish usage event", zap.Error(err))
		}
	}

	return &RecordEventResult{UsageEventID: event.ID, Clamped: clamped}, nil
}

// SyncSnapshots ingests a daily snapshot batch. Each entry upserts the
// (device, app, day) row, last write wins. Zero-minute entries are dropped
// without counting; entries with a malformed date override are rejected
// without failing their siblings.
func (s *IngestionService) SyncSnapshots(ctx context.Context, cmd SyncSnapshotsCommand) (*SyncSnapshotsResult, error) {
	device, err := s.resolveDevice(ctx, cmd.DeviceIdentifier)
	if err != nil {
		return nil, err
	}

	now := s.now()
	batchDay := usage.NormalizeDateKey(cmd.Date, now)
	result := &SyncSnapshotsResult{Date: batchDay}

	for _, entry := range cmd.Entries {
		day := batchDay
		if entry.Date != "" {
			if !usage.IsValidDateKey(entry.Date) {
				result.Rejected++
				s.logger.Warn("Rejected snapshot entry with malformed date",
					zap.String("device_id", device.ID.String()),
					zap.String("package", entry.PackageName),
					zap.String("date", entry.Date))
				continue
			}
			day = entry.Date
		}

		app, err := s.findOrCreateApp(ctx, entry.PackageName, entry.AppName)
		if err != nil {
			result.Rejected++
			s.logger.Warn("Rejected snapshot entry",
				zap.String("device_id", device.ID.String()),
				zap.String("package", entry.PackageName),
				zap.Error(err))
			continue
		}

		snapshot, err := usage.NewDailySnapshot(device.ID, app.ID, day, entry.TotalMinutes, now)
		if err != nil {
			result.Rejected++
			continue
		}
		if snapshot.IsEmpty() {
			// Nothing to store; not a sync and not a rejection.
			continue
		}

		if err := s.snapshotRepo.Upsert(ctx, snapshot); err != nil {
			result.Rejected++
			s.logger.Warn("Failed to upsert snapshot",
				zap.String("device_id", device.ID.String()),
				zap.String("package", entry.PackageName),
				zap.String("day", day),
				zap.Error(err))
			continue
		}
		result.Synced++
	}

	s.touchDevice(ctx, device)
	s.invalidate(ctx, device.ID)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, usage.NewSnapshotsSyncedEvent(device.ID, batchDay, result.Synced, result.Rejected)); err != nil {
			s.logger.Warn("Failed to publish snapshot sync event", zap.Error(err))
		}
	}

	s.logger.Info("Snapshot batch processed",
		zap.String("device_id", device.ID.String()),
		zap.String("day", batchDay),
		zap.Int("synced", result.Synced),
		zap.Int("rejected", result.Rejected))

	return result, nil
}

func (s *IngestionService) resolveDevice(ctx context.Context, identifier string) (*directory.Device, error) {
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
	return device, nil
}

// findOrCreateApp resolves a package name to its directory entry, creating
// it on first sight and picking up display-name changes.
func (s *IngestionService) findOrCreateApp(ctx context.Context, packageName, appName string) (*directory.App, error) {
	app, err := s.appRepo.FindByPackage(ctx, packageName)
	if err == nil {
		if app.Rename(appName) {
			if updateErr := s.appRepo.Update(ctx, app); updateErr != nil {
				s.logger.Warn("Failed to update app display name",
					zap.String("package", packageName),
					zap.Error(updateErr))
			}
		}
		return app, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	app, err = directory.NewApp(packageName, appName)
	if err != nil {
		return nil, err
	}
	if err := s.appRepo.Save(ctx, app); err != nil {
		// Lost a creation race; the winner's row is the one to use.
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.appRepo.FindByPackage(ctx, packageName)
		}
		return nil, err
	}
	return app, nil
}

func (s *IngestionService) touchDevice(ctx context.Context, device *directory.Device) {
	device.Touch(s.now())
	if err := s.deviceRepo.Update(ctx, device); err != nil {
		s.logger.Warn("Failed to update device last-seen",
			zap.String("device_id", device.ID.String()),
			zap.Error(err))
	}
}

func (s *IngestionService) invalidate(ctx context.Context, deviceID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDevice(ctx, deviceID); err != nil {
		s.logger.Warn("Failed to invalidate summary cache",
			zap.String("device_id", deviceID.String()),
			zap.Error(err))
	}
}
