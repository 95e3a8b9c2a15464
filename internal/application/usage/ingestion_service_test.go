package usage

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
	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/usage"
)

func newTestDevice(t *testing.T, identifier string) *directory.Device {
	t.Helper()
	device, err := directory.NewDevice(uuid.New(), identifier, "Kid's phone", "android")
	require.NoError(t, err)
	return device
}

func newTestApp(t *testing.T, pkg, name string) *directory.App {
	t.Helper()
	app, err := directory.NewApp(pkg, name)
	require.NoError(t, err)
	return app
}

func newIngestionFixture() (*IngestionService, *mockEventRepo, *mockSnapshotRepo, *mockDeviceRepo, *mockAppRepo, *mockPublisher) {
	eventRepo := new(mockEventRepo)
	snapshotRepo := new(mockSnapshotRepo)
	deviceRepo := new(mockDeviceRepo)
	appRepo := new(mockAppRepo)
	publisher := new(mockPublisher)

	svc := NewIngestionService(eventRepo, snapshotRepo, deviceRepo, appRepo, publisher, nil, zap.NewNop())
	svc.WithClock(func() time.Time {
		return time.Date(2024, 1, 15, 10, 30, 0, 0, usage.CalendarZone())
	})
	return svc, eventRepo, snapshotRepo, deviceRepo, appRepo, publisher
}

func TestRecordEventUnregisteredDevice(t *testing.T) {
	svc, _, _, deviceRepo, _, _ := newIngestionFixture()
	deviceRepo.On("FindByIdentifier", mock.Anything, "ghost").Return(nil, shared.ErrNotFound)

	_, err := svc.RecordEvent(context.Background(), RecordEventCommand{
		DeviceIdentifier: "ghost",
		PackageName:      "com.example.game",
		DurationSeconds:  60,
	})

	assert.ErrorIs(t, err, shared.ErrDeviceNotRegistered)
}

func TestRecordEventStoresNewEvent(t *testing.T) {
	svc, eventRepo, _, deviceRepo, appRepo, publisher := newIngestionFixture()
	device := newTestDevice(t, "device-1")
	app := newTestApp(t, "com.example.game", "Game")

	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	deviceRepo.On("Update", mock.Anything, device).Return(nil)
	appRepo.On("FindByPackage", mock.Anything, "com.example.game").Return(app, nil)
	eventRepo.On("FindNearDuplicate", mock.Anything, device.ID, app.ID, 60, mock.Anything, usage.DedupWindow).
		Return(nil, shared.ErrNotFound)
	eventRepo.On("Save", mock.Anything, mock.AnythingOfType("*usage.UsageEvent")).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.RecordEvent(context.Background(), RecordEventCommand{
		DeviceIdentifier: "device-1",
		PackageName:      "com.example.game",
		AppName:          "Game",
		DurationSeconds:  60,
		Timestamp:        time.Date(2024, 1, 15, 9, 0, 0, 0, usage.CalendarZone()),
	})

	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.False(t, result.Clamped)
	assert.NotEqual(t, uuid.Nil, result.UsageEventID)
	eventRepo.AssertCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRecordEventIdempotentByEventID(t *testing.T) {
	svc, eventRepo, _, deviceRepo, appRepo, _ := newIngestionFixture()
	device := newTestDevice(t, "device-1")
	app := newTestApp(t, "com.example.game", "Game")

	stored, _, err := usage.NewUsageEvent(device.ID, app.ID, 60, time.Now(), "evt-42")
	require.NoError(t, err)

	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	appRepo.On("FindByPackage", mock.Anything, "com.example.game").Return(app, nil)
	eventRepo.On("FindByClientEventID", mock.Anything, device.ID, "evt-42").Return(stored, nil)

	result, err := svc.RecordEvent(context.Background(), RecordEventCommand{
		DeviceIdentifier: "device-1",
		PackageName:      "com.example.game",
		DurationSeconds:  9999, // differing payload still acks the stored event
		EventID:          "evt-42",
	})

	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, stored.ID, result.UsageEventID)
	eventRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRecordEventCollapsesNearDuplicate(t *testing.T) {
	svc, eventRepo, _, deviceRepo, appRepo, _ := newIngestionFixture()
	device := newTestDevice(t, "device-1")
	app := newTestApp(t, "com.example.game", "Game")

	occurred := time.Date(2024, 1, 15, 9, 0, 0, 0, usage.CalendarZone())
	stored, _, err := usage.NewUsageEvent(device.ID, app.ID, 60, occurred, "")
	require.NoError(t, err)

	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	appRepo.On("FindByPackage", mock.Anything, "com.example.game").Return(app, nil)
	eventRepo.On("FindNearDuplicate", mock.Anything, device.ID, app.ID, 60, mock.Anything, usage.DedupWindow).
		Return(stored, nil)

	result, err := svc.RecordEvent(context.Background(), RecordEventCommand{
		DeviceIdentifier: "device-1",
		PackageName:      "com.example.game",
		DurationSeconds:  60,
		Timestamp:        occurred.Add(time.Second),
	})

	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, stored.ID, result.UsageEventID)
	eventRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRecordEventClampsDuration(t *testing.T) {
	svc, eventRepo, _, deviceRepo, appRepo, publisher := newIngestionFixture()
	device := newTestDevice(t, "device-1")
	app := newTestApp(t, "com.example.game", "Game")

	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	deviceRepo.On("Update", mock.Anything, device).Return(nil)
	appRepo.On("FindByPackage", mock.Anything, "com.example.game").Return(app, nil)
	eventRepo.On("FindNearDuplicate", mock.Anything, device.ID, app.ID, usage.MaxEventDurationSeconds, mock.Anything, usage.DedupWindow).
		Return(nil, shared.ErrNotFound)
	eventRepo.On("Save", mock.Anything, mock.MatchedBy(func(e *usage.UsageEvent) bool {
		return e.DurationSeconds == usage.MaxEventDurationSeconds
	})).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.RecordEvent(context.Background(), RecordEventCommand{
		DeviceIdentifier: "device-1",
		PackageName:      "com.example.game",
		DurationSeconds:  200_000,
	})

	require.NoError(t, err)
	assert.True(t, result.Clamped)
}

func TestRecordEventRejectsNonPositiveDuration(t *testing.T) {
	svc, _, _, deviceRepo, appRepo, _ := newIngestionFixture()
	device := newTestDevice(t, "device-1")
	app := newTestApp(t, "com.example.game", "Game")

	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	appRepo.On("FindByPackage", mock.Anything, "com.example.game").Return(app, nil)

	_, err := svc.RecordEvent(context.Background(), RecordEventCommand{
		DeviceIdentifier: "device-1",
		PackageName:      "com.example.game",
		DurationSeconds:  0,
	})

	assert.ErrorIs(t, err, shared.ErrInvalidDuration)
}

func TestSyncSnapshots(t *testing.T) {
	svc, _, snapshotRepo, deviceRepo, appRepo, publisher := newIngestionFixture()
	device := newTestDevice(t, "device-1")
	game := newTestApp(t, "com.example.game", "Game")
	chat := newTestApp(t, "com.example.chat", "Chat")

	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	deviceRepo.On("Update", mock.Anything, device).Return(nil)
	appRepo.On("FindByPackage", mock.Anything, "com.example.game").Return(game, nil)
	appRepo.On("FindByPackage", mock.Anything, "com.example.chat").Return(chat, nil)
	snapshotRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*usage.DailySnapshot")).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SyncSnapshots(context.Background(), SyncSnapshotsCommand{
		DeviceIdentifier: "device-1",
		Date:             "2024-01-14",
		Entries: []SnapshotEntry{
			{PackageName: "com.example.game", TotalMinutes: 120},
			{PackageName: "com.example.chat", TotalMinutes: 2000}, // clamped to 1440, still synced
			{PackageName: "com.example.game", TotalMinutes: 0},    // dropped, counted as neither
			{PackageName: "com.example.game", TotalMinutes: 30, Date: "bogus"}, // rejected
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "2024-01-14", result.Date)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 1, result.Rejected)
	snapshotRepo.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestSyncSnapshotsPerEntryDateOverride(t *testing.T) {
	svc, _, snapshotRepo, deviceRepo, appRepo, publisher := newIngestionFixture()
	device := newTestDevice(t, "device-1")
	game := newTestApp(t, "com.example.game", "Game")

	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	deviceRepo.On("Update", mock.Anything, device).Return(nil)
	appRepo.On("FindByPackage", mock.Anything, "com.example.game").Return(game, nil)
	snapshotRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *usage.DailySnapshot) bool {
		return s.Day == "2024-01-10"
	})).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SyncSnapshots(context.Background(), SyncSnapshotsCommand{
		DeviceIdentifier: "device-1",
		Date:             "2024-01-14",
		Entries: []SnapshotEntry{
			{PackageName: "com.example.game", TotalMinutes: 45, Date: "2024-01-10"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Zero(t, result.Rejected)
}

func TestSyncSnapshotsMalformedBatchDateFallsBackToToday(t *testing.T) {
	svc, _, snapshotRepo, deviceRepo, appRepo, publisher := newIngestionFixture()
	device := newTestDevice(t, "device-1")
	game := newTestApp(t, "com.example.game", "Game")

	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	deviceRepo.On("Update", mock.Anything, device).Return(nil)
	appRepo.On("FindByPackage", mock.Anything, "com.example.game").Return(game, nil)
	snapshotRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *usage.DailySnapshot) bool {
		return s.Day == "2024-01-15" // the injected clock's today
	})).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SyncSnapshots(context.Background(), SyncSnapshotsCommand{
		DeviceIdentifier: "device-1",
		Date:             "last tuesday",
		Entries:          []SnapshotEntry{{PackageName: "com.example.game", TotalMinutes: 45}},
	})

	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", result.Date)
	assert.Equal(t, 1, result.Synced)
}

func TestFindOrCreateAppCreatesOnFirstSight(t *testing.T) {
	svc, eventRepo, _, deviceRepo, appRepo, publisher := newIngestionFixture()
	device := newTestDevice(t, "device-1")

	deviceRepo.On("FindByIdentifier", mock.Anything, "device-1").Return(device, nil)
	deviceRepo.On("Update", mock.Anything, device).Return(nil)
	appRepo.On("FindByPackage", mock.Anything, "com.example.new").Return(nil, shared.ErrNotFound)
	appRepo.On("Save", mock.Anything, mock.MatchedBy(func(a *directory.App) bool {
		return a.PackageName == "com.example.new" && a.Name == "Newcomer"
	})).Return(nil)
	eventRepo.On("FindNearDuplicate", mock.Anything, device.ID, mock.Anything, 60, mock.Anything, usage.DedupWindow).
		Return(nil, shared.ErrNotFound)
	eventRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.RecordEvent(context.Background(), RecordEventCommand{
		DeviceIdentifier: "device-1",
		PackageName:      "com.example.new",
		AppName:          "Newcomer",
		DurationSeconds:  60,
	})

	require.NoError(t, err)
	appRepo.AssertCalled(t, "Save", mock.Anything, mock.Anything)
}
