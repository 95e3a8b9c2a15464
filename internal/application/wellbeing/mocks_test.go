package wellbeing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/usage"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// mockGoalRepo is a mock implementation of wellbeing.GoalRepository
type mockGoalRepo struct {
	mock.Mock
}

func (m *mockGoalRepo) Save(ctx context.Context, goal *wellbeing.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *mockGoalRepo) Update(ctx context.Context, goal *wellbeing.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *mockGoalRepo) FindByID(ctx context.Context, id uuid.UUID) (*wellbeing.Goal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wellbeing.Goal), args.Error(1)
}

func (m *mockGoalRepo) FindByDevice(ctx context.Context, deviceID uuid.UUID) ([]*wellbeing.Goal, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wellbeing.Goal), args.Error(1)
}

func (m *mockGoalRepo) FindActiveByDevice(ctx context.Context, deviceID uuid.UUID) ([]*wellbeing.Goal, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wellbeing.Goal), args.Error(1)
}

func (m *mockGoalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockCategoryRepo is a mock implementation of wellbeing.CategoryRepository
type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) Save(ctx context.Context, category *wellbeing.AppCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*wellbeing.AppCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wellbeing.AppCategory), args.Error(1)
}

func (m *mockCategoryRepo) FindByDevice(ctx context.Context, deviceID uuid.UUID) ([]*wellbeing.AppCategory, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wellbeing.AppCategory), args.Error(1)
}

func (m *mockCategoryRepo) ListAppIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockCategoryRepo) AddApp(ctx context.Context, categoryID, appID uuid.UUID) error {
	args := m.Called(ctx, categoryID, appID)
	return args.Error(0)
}

func (m *mockCategoryRepo) RemoveApp(ctx context.Context, categoryID, appID uuid.UUID) error {
	args := m.Called(ctx, categoryID, appID)
	return args.Error(0)
}

// mockLimitRepo is a mock implementation of wellbeing.AppLimitRepository
type mockLimitRepo struct {
	mock.Mock
}

func (m *mockLimitRepo) Save(ctx context.Context, limit *wellbeing.AppLimit) error {
	args := m.Called(ctx, limit)
	return args.Error(0)
}

func (m *mockLimitRepo) FindByDevice(ctx context.Context, deviceID uuid.UUID) ([]*wellbeing.AppLimit, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wellbeing.AppLimit), args.Error(1)
}

func (m *mockLimitRepo) ExistsForApp(ctx context.Context, deviceID, appID uuid.UUID) (bool, error) {
	args := m.Called(ctx, deviceID, appID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLimitRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
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

// mockUsageReader is a mock implementation of UsageReader
type mockUsageReader struct {
	mock.Mock
}

func (m *mockUsageReader) RangeRowsForDevice(ctx context.Context, deviceID uuid.UUID, startKey, endKey string) ([]usage.AggregateRow, string, error) {
	args := m.Called(ctx, deviceID, startKey, endKey)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]usage.AggregateRow), args.String(1), args.Error(2)
}

// mockPublisher is a mock implementation of shared.EventPublisher
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
