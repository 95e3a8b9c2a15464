package wellbeing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// CategoryService handles app categories, their membership, and per-app
// daily limits.
type CategoryService struct {
	categoryRepo wellbeing.CategoryRepository
	limitRepo    wellbeing.AppLimitRepository
	deviceRepo   directory.DeviceRepository
	appRepo      directory.AppRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryRepo wellbeing.CategoryRepository,
	limitRepo wellbeing.AppLimitRepository,
	deviceRepo directory.DeviceRepository,
	appRepo directory.AppRepository,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		limitRepo:    limitRepo,
		deviceRepo:   deviceRepo,
		appRepo:      appRepo,
		logger:       logger,
	}
}

// CreateCategory creates an app category for a device
func (s *CategoryService) CreateCategory(ctx context.Context, scope directory.Scope, cmd CreateCategoryCommand) (*wellbeing.AppCategory, error) {
	device, err := s.resolveDevice(ctx, scope, cmd.DeviceIdentifier)
	if err != nil {
		return nil, err
	}

	category, err := wellbeing.NewAppCategory(device.ID, cmd.Name)
	if err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("Category created",
		zap.String("category_id", category.ID.String()),
		zap.String("name", category.Name))
	return category, nil
}

// ListCategories retrieves all categories for a device
func (s *CategoryService) ListCategories(ctx context.Context, scope directory.Scope, deviceIdentifier string) ([]*wellbeing.AppCategory, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}
	return s.categoryRepo.FindByDevice(ctx, device.ID)
}

// AddAppToCategory adds an app to a category. Adding the same app twice is a
// no-op.
func (s *CategoryService) AddAppToCategory(ctx context.Context, scope directory.Scope, categoryID, appID uuid.UUID) error {
	category, err := s.authorizeCategory(ctx, scope, categoryID)
	if err != nil {
		return err
	}
	if _, err := s.appRepo.FindByID(ctx, appID); err != nil {
		return err
	}
	return s.categoryRepo.AddApp(ctx, category.ID, appID)
}

// RemoveAppFromCategory removes an app from a category
func (s *CategoryService) RemoveAppFromCategory(ctx context.Context, scope directory.Scope, categoryID, appID uuid.UUID) error {
	category, err := s.authorizeCategory(ctx, scope, categoryID)
	if err != nil {
		return err
	}
	return s.categoryRepo.RemoveApp(ctx, category.ID, appID)
}

// ListCategoryApps retrieves the member app IDs of a category
func (s *CategoryService) ListCategoryApps(ctx context.Context, scope directory.Scope, categoryID uuid.UUID) ([]uuid.UUID, error) {
	category, err := s.authorizeCategory(ctx, scope, categoryID)
	if err != nil {
		return nil, err
	}
	return s.categoryRepo.ListAppIDs(ctx, category.ID)
}

// CreateLimit configures a per-app daily limit
func (s *CategoryService) CreateLimit(ctx context.Context, scope directory.Scope, cmd CreateLimitCommand) (*wellbeing.AppLimit, error) {
	device, err := s.resolveDevice(ctx, scope, cmd.DeviceIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := s.appRepo.FindByID(ctx, cmd.AppID); err != nil {
		return nil, err
	}

	exists, err := s.limitRepo.ExistsForApp(ctx, device.ID, cmd.AppID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyExists
	}

	limit, err := wellbeing.NewAppLimit(device.ID, cmd.AppID, cmd.DailyLimitMinutes)
	if err != nil {
		return nil, err
	}
	if err := s.limitRepo.Save(ctx, limit); err != nil {
		return nil, err
	}
	return limit, nil
}

// ListLimits retrieves all per-app limits for a device
func (s *CategoryService) ListLimits(ctx context.Context, scope directory.Scope, deviceIdentifier string) ([]*wellbeing.AppLimit, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}
	return s.limitRepo.FindByDevice(ctx, device.ID)
}

// DeleteLimit removes a per-app limit
func (s *CategoryService) DeleteLimit(ctx context.Context, scope directory.Scope, deviceIdentifier string, limitID uuid.UUID) error {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return err
	}
	limits, err := s.limitRepo.FindByDevice(ctx, device.ID)
	if err != nil {
		return err
	}
	for _, limit := range limits {
		if limit.ID == limitID {
			return s.limitRepo.Delete(ctx, limitID)
		}
	}
	return shared.ErrNotFound
}

func (s *CategoryService) authorizeCategory(ctx context.Context, scope directory.Scope, categoryID uuid.UUID) (*wellbeing.AppCategory, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	device, err := s.deviceRepo.FindByID(ctx, category.DeviceID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccess(device) {
		return nil, shared.ErrForbidden
	}
	return category, nil
}

func (s *CategoryService) resolveDevice(ctx context.Context, scope directory.Scope, identifier string) (*directory.Device, error) {
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
