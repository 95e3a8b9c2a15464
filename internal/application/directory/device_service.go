package directory

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
)

// RegisterDeviceCommand is the input for registering a device.
type RegisterDeviceCommand struct {
	Identifier string
	Name       string
	Platform   string
}

// DeviceService handles device registration and the device directory.
type DeviceService struct {
	deviceRepo directory.DeviceRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewDeviceService creates a new DeviceService
func NewDeviceService(deviceRepo directory.DeviceRepository, logger *zap.Logger) *DeviceService {
	return &DeviceService{
		deviceRepo: deviceRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *DeviceService) WithClock(now func() time.Time) *DeviceService {
	s.now = now
	return s
}

// RegisterDevice registers a device for the requesting user. Re-registering
// an identifier the user already owns refreshes its name and platform
// instead of failing, so app reinstalls keep working.
func (s *DeviceService) RegisterDevice(ctx context.Context, scope directory.Scope, cmd RegisterDeviceCommand) (*directory.Device, error) {
	existing, err := s.deviceRepo.FindByIdentifier(ctx, cmd.Identifier)
	if err == nil {
		if !scope.CanAccess(existing) {
			return nil, shared.ErrAlreadyExists
		}
		if cmd.Name != "" {
			existing.Name = cmd.Name
		}
		if cmd.Platform != "" {
			existing.Platform = cmd.Platform
		}
		existing.Touch(s.now())
		if err := s.deviceRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	device, err := directory.NewDevice(scope.UserID, cmd.Identifier, cmd.Name, cmd.Platform)
	if err != nil {
		return nil, err
	}
	if err := s.deviceRepo.Save(ctx, device); err != nil {
		s.logger.Error("Failed to register device",
			zap.String("identifier", cmd.Identifier),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Device registered",
		zap.String("device_id", device.ID.String()),
		zap.String("platform", device.Platform))
	return device, nil
}

// GetDevice resolves a device identifier the scope may see
func (s *DeviceService) GetDevice(ctx context.Context, scope directory.Scope, identifier string) (*directory.Device, error) {
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

// ListDevices retrieves the devices visible to the scope
func (s *DeviceService) ListDevices(ctx context.Context, scope directory.Scope) ([]*directory.Device, error) {
	if scope.Elevated {
		return s.deviceRepo.FindAll(ctx)
	}
	return s.deviceRepo.FindByOwner(ctx, scope.UserID)
}
