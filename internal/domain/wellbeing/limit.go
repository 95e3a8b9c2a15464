package wellbeing

import (
	"github.com/google/uuid"
	"github.com/screentime/backend/internal/domain/shared"
)

// AppLimit is a per-app daily cap configured for a device. Its existence is
// what the limit-recommendation detector checks before suggesting one.
type AppLimit struct {
	shared.BaseEntity
	DeviceID          uuid.UUID
	AppID             uuid.UUID
	DailyLimitMinutes int
	Enabled           bool
}

// NewAppLimit creates an enabled per-app limit
func NewAppLimit(deviceID, appID uuid.UUID, dailyLimitMinutes int) (*AppLimit, error) {
	if deviceID == uuid.Nil || appID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Device and app references are required")
	}
	if dailyLimitMinutes <= 0 || dailyLimitMinutes > 1440 {
		return nil, shared.NewDomainError("INVALID_TARGET", "Daily limit must be between 1 and 1440 minutes")
	}

	return &AppLimit{
		BaseEntity:        shared.NewBaseEntity(),
		DeviceID:          deviceID,
		AppID:             appID,
		DailyLimitMinutes: dailyLimitMinutes,
		Enabled:           true,
	}, nil
}
