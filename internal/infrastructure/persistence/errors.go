package persistence

import (
	"errors"

	"gorm.io/gorm"

	"github.com/screentime/backend/internal/domain/shared"
)

// translateError maps GORM errors onto domain sentinels so callers never see
// driver-level errors. Requires gorm.Config.TranslateError to be enabled on
// the connection.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}
