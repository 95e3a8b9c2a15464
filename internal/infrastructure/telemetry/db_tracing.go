package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterOtelGorm registers the otelgorm plugin so every query produces a
// span under the active trace. No-op when telemetry is disabled.
func RegisterOtelGorm(db *gorm.DB, tp *TracerProvider, logger *zap.Logger) error {
	if !tp.IsEnabled() {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName("postgres"),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("failed to register otelgorm plugin: %w", err)
	}

	logger.Info("Database tracing enabled")
	return nil
}
