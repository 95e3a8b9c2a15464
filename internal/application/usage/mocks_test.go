package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/usage"
)

// mockEventRepo is a mock implementation of usage.UsageEventRepository
type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Save(ctx context.Context, event *usage.UsageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockEventRepo) FindByID(ctx context.Context, id uuid.UUID) (*usage.UsageEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usage.UsageEvent), args.Error(1)
}

func (m *mockEventRepo) FindByClientEventID(ctx context.Context, deviceID uuid.UUID, clientEventID string) (*usage.UsageEvent, error) {
	args := m.Called(ctx, deviceID, clientEventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usage.UsageEvent), args.Error(1)
}

func (m *mockEventRepo) FindNearDuplicate(ctx context.Context, deviceID, appID uuid.UUID, durationSeconds int, occurredAt time.Time, window time.Duration) (*usage.UsageEvent, error) {
	args := m.Called(ctx, deviceID, appID, durationSeconds, occurredAt, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usage.UsageEvent), args.Error(1)
}

func (m *mockEventRepo) FindOverlapping(ctx context.Context, deviceIDs []uuid.UUID, start, end time.Time) ([]*usage.UsageEvent, error) {
	args := m.Called(ctx, deviceIDs, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*usage.UsageEvent), args.Error(1)
}

func (m *mockEventRepo) FindEndingWithin(ctx context.Context, deviceIDs []uuid.UUID, start, end time.Time) ([]*usage.UsageEvent, error) {
	args := m.Called(ctx, deviceIDs, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*usage.UsageEvent), args.Error(1)
}

// mockSnapshotRepo is a mock implementation of usage.DailySnapshotRepository
type mockSnapshotRepo struct {
	mock.Mock
}

func (m *mockSnapshotRepo) Upsert(ctx context.Context, snapshot *usage.DailySnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *mockSnapshotRepo) ExistsForDays(ctx context.Context, deviceIDs []uuid.UUID, days []string) (bool, error) {
	args := m.Called(ctx, deviceIDs, days)
	return args.Bool(0), args.Error(1)
}

func (m *mockSnapshotRepo) FindForDays(ctx context.Context, deviceIDs []uuid.UUID, days []string) ([]*usage.DailySnapshot, error) {
	args := m.Called(ctx, deviceIDs, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*usage.DailySnapshot), args.Error(1)
}

// mockDeviceRepo is a mock implementation of directory.DeviceRepository
type mockDeviceRepo struct {
	mock.Mock
}

func (m *mockDeviceRepo) Save(ctx context.Context, device *directory.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *mockDeviceRepo) Update(ctx context.Context, device *directory.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *mockDeviceRepo) FindByID(ctx context.Context, id uuid.UUID) (*directory.Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Device), args.Error(1)
}

func (m *mockDeviceRepo) FindByIdentifier(ctx context.Context, identifier string) (*directory.Device, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Device), args.Error(1)
}

func (m *mockDeviceRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*directory.Device, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*directory.Device), args.Error(1)
}

func (m *mockDeviceRepo) FindAll(ctx context.Context) ([]*directory.Device, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*directory.Device), args.Error(1)
}

// mockAppRepo is a mock implementation of directory.AppRepository
type mockAppRepo struct {
	mock.Mock
}

func (m *mockAppRepo) FindByID(ctx context.Context, id uuid.UUID) (*directory.App, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.App), args.Error(1)
}

func (m *mockAppRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*directory.App, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*directory.App), args.Error(1)
}

func (m *mockAppRepo) FindByPackage(ctx context.Context, packageName string) (*directory.App, error) {
	args := m.Called(ctx, packageName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.App), args.Error(1)
}

func (m *mockAppRepo) Save(ctx context.Context, app *directory.App) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *mockAppRepo) Update(ctx context.Context, app *directory.App) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

// mockPublisher is a mock implementation of shared.EventPublisher
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
