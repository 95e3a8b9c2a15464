package wellbeing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screentime/backend/internal/domain/directory"
	"github.com/screentime/backend/internal/domain/shared"
	"github.com/screentime/backend/internal/domain/usage"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// UsageReader is the slice of the aggregation engine the wellbeing services
// consume: per-app rows over a day span, already source-selected and sorted.
type UsageReader interface {
	RangeRowsForDevice(ctx context.Context, deviceID uuid.UUID, startKey, endKey string) ([]usage.AggregateRow, string, error)
}

// GoalService handles goal lifecycle and on-read progress evaluation.
// Progress is never stored; every read recomputes it from the aggregation
// engine.
type GoalService struct {
	goalRepo     wellbeing.GoalRepository
	categoryRepo wellbeing.CategoryRepository
	deviceRepo   directory.DeviceRepository
	usageReader  UsageReader
	publisher    shared.EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

// NewGoalService creates a new GoalService
func NewGoalService(
	goalRepo wellbeing.GoalRepository,
	categoryRepo wellbeing.CategoryRepository,
	deviceRepo directory.DeviceRepository,
	usageReader UsageReader,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *GoalService {
	return &GoalService{
		goalRepo:     goalRepo,
		categoryRepo: categoryRepo,
		deviceRepo:   deviceRepo,
		usageReader:  usageReader,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *GoalService) WithClock(now func() time.Time) *GoalService {
	s.now = now
	return s
}

// CreateGoal creates a goal for a device the scope may manage.
func (s *GoalService) CreateGoal(ctx context.Context, scope directory.Scope, cmd CreateGoalCommand) (*wellbeing.Goal, error) {
	device, err := s.resolveDevice(ctx, scope, cmd.DeviceIdentifier)
	if err != nil {
		return nil, err
	}

	goal, err := wellbeing.NewGoal(device.ID, cmd.Name, wellbeing.GoalType(cmd.Type), cmd.TargetMinutes, cmd.AppID, cmd.CategoryID, cmd.EndDate)
	if err != nil {
		return nil, err
	}

	if goal.Type == wellbeing.GoalTypeCategorySpecific {
		category, err := s.categoryRepo.FindByID(ctx, *goal.CategoryID)
		if err != nil {
			return nil, err
		}
		if category.DeviceID != device.ID {
			return nil, shared.ErrForbidden
		}
	}

	if err := s.goalRepo.Save(ctx, goal); err != nil {
		s.logger.Error("Failed to save goal",
			zap.String("device_id", device.ID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Goal created",
		zap.String("goal_id", goal.ID.String()),
		zap.String("type", string(goal.Type)),
		zap.Int("target_minutes", goal.TargetMinutes))
	return goal, nil
}

// GetGoal retrieves a goal the scope may see
func (s *GoalService) GetGoal(ctx context.Context, scope directory.Scope, goalID uuid.UUID) (*wellbeing.Goal, error) {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeGoal(ctx, scope, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// ListGoals retrieves all goals for a device
func (s *GoalService) ListGoals(ctx context.Context, scope directory.Scope, deviceIdentifier string) ([]*wellbeing.Goal, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}
	return s.goalRepo.FindByDevice(ctx, device.ID)
}

// UpdateGoal applies the non-nil fields of the command to a goal
func (s *GoalService) UpdateGoal(ctx context.Context, scope directory.Scope, goalID uuid.UUID, cmd UpdateGoalCommand) (*wellbeing.Goal, error) {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeGoal(ctx, scope, goal); err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		goal.Name = *cmd.Name
	}
	if cmd.TargetMinutes != nil {
		if err := goal.UpdateTarget(*cmd.TargetMinutes); err != nil {
			return nil, err
		}
	}
	if cmd.Status != nil {
		if err := goal.SetStatus(wellbeing.GoalStatus(*cmd.Status)); err != nil {
			return nil, err
		}
	}

	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoal removes a goal
func (s *GoalService) DeleteGoal(ctx context.Context, scope directory.Scope, goalID uuid.UUID) error {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return err
	}
	if _, err := s.authorizeGoal(ctx, scope, goal); err != nil {
		return err
	}
	return s.goalRepo.Delete(ctx, goal.ID)
}

// GetGoalProgress evaluates one goal against current usage.
func (s *GoalService) GetGoalProgress(ctx context.Context, scope directory.Scope, goalID uuid.UUID) (*wellbeing.Progress, error) {
	goal, err := s.goalRepo.FindByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeGoal(ctx, scope, goal); err != nil {
		return nil, err
	}

	progress, err := s.evaluate(ctx, goal)
	if err != nil {
		return nil, err
	}
	s.publishIfExceeded(ctx, goal, *progress)
	return progress, nil
}

// GetAllGoalProgress evaluates every active goal on a device. Goals that can
// no longer be resolved (a deleted category, for instance) are skipped with a
// warning rather than failing the batch.
func (s *GoalService) GetAllGoalProgress(ctx context.Context, scope directory.Scope, deviceIdentifier string) ([]wellbeing.Progress, error) {
	device, err := s.resolveDevice(ctx, scope, deviceIdentifier)
	if err != nil {
		return nil, err
	}

	goals, err := s.goalRepo.FindActiveByDevice(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	results := make([]wellbeing.Progress, 0, len(goals))
	for _, goal := range goals {
		progress, err := s.evaluate(ctx, goal)
		if err != nil {
			s.logger.Warn("Skipping unresolvable goal",
				zap.String("goal_id", goal.ID.String()),
				zap.String("type", string(goal.Type)),
				zap.Error(err))
			continue
		}
		s.publishIfExceeded(ctx, goal, *progress)
		results = append(results, *progress)
	}
	return results, nil
}

// evaluate computes a goal's current minutes from the aggregation engine.
func (s *GoalService) evaluate(ctx context.Context, goal *wellbeing.Goal) (*wellbeing.Progress, error) {
	now := s.now()
	today := usage.DateKeyOf(now)

	var current float64
	switch goal.Type {
	case wellbeing.GoalTypeDailyTotal:
		rows, _, err := s.usageReader.RangeRowsForDevice(ctx, goal.DeviceID, today, today)
		if err != nil {
			return nil, err
		}
		current = usage.MinutesFromSeconds(usage.SumSeconds(rows))

	case wellbeing.GoalTypeWeeklyTotal:
		weekStart := usage.DateKeyOf(now.AddDate(0, 0, -6))
		rows, _, err := s.usageReader.RangeRowsForDevice(ctx, goal.DeviceID, weekStart, today)
		if err != nil {
			return nil, err
		}
		current = usage.MinutesFromSeconds(usage.SumSeconds(rows))

	case wellbeing.GoalTypeAppSpecific:
		rows, _, err := s.usageReader.RangeRowsForDevice(ctx, goal.DeviceID, today, today)
		if err != nil {
			return nil, err
		}
		// Absent row means the app was not used today.
		for _, row := range rows {
			if row.AppID == *goal.AppID {
				current = row.TotalMinutes
				break
			}
		}

	case wellbeing.GoalTypeCategorySpecific:
		if _, err := s.categoryRepo.FindByID(ctx, *goal.CategoryID); err != nil {
			return nil, err
		}
		appIDs, err := s.categoryRepo.ListAppIDs(ctx, *goal.CategoryID)
		if err != nil {
			return nil, err
		}
		rows, _, err := s.usageReader.RangeRowsForDevice(ctx, goal.DeviceID, today, today)
		if err != nil {
			return nil, err
		}
		members := make(map[uuid.UUID]struct{}, len(appIDs))
		for _, id := range appIDs {
			members[id] = struct{}{}
		}
		var seconds int64
		for _, row := range rows {
			if _, ok := members[row.AppID]; ok {
				seconds += row.TotalSeconds
			}
		}
		current = usage.MinutesFromSeconds(seconds)

	default:
		return nil, shared.NewDomainError("INVALID_GOAL_TYPE", "Unknown goal type")
	}

	progress := wellbeing.NewProgress(goal, current, now)
	return &progress, nil
}

func (s *GoalService) publishIfExceeded(ctx context.Context, goal *wellbeing.Goal, progress wellbeing.Progress) {
	if s.publisher == nil || progress.Status != wellbeing.ProgressExceeded {
		return
	}
	if err := s.publisher.Publish(ctx, wellbeing.NewGoalExceededEvent(goal, progress)); err != nil {
		s.logger.Warn("Failed to publish goal-exceeded event",
			zap.String("goal_id", goal.ID.String()),
			zap.Error(err))
	}
}

func (s *GoalService) resolveDevice(ctx context.Context, scope directory.Scope, identifier string) (*directory.Device, error) {
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

func (s *GoalService) authorizeGoal(ctx context.Context, scope directory.Scope, goal *wellbeing.Goal) (*directory.Device, error) {
	device, err := s.deviceRepo.FindByID(ctx, goal.DeviceID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccess(device) {
		return nil, shared.ErrForbidden
	}
	return device, nil
}
