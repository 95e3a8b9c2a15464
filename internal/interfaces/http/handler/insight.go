package handler

import (
	"github.com/gin-gonic/gin"

	wellbeingapp "github.com/screentime/backend/internal/application/wellbeing"
	"github.com/screentime/backend/internal/infrastructure/config"
	"github.com/screentime/backend/internal/infrastructure/telemetry"
)

// InsightHandler handles insight API endpoints
type InsightHandler struct {
	BaseHandler
	insightService *wellbeingapp.InsightService
	usageConfig    config.UsageConfig
	metrics        *telemetry.UsageMetrics
}

// NewInsightHandler creates a new InsightHandler
func NewInsightHandler(insightService *wellbeingapp.InsightService, usageConfig config.UsageConfig) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
		usageConfig:    usageConfig,
	}
}

// SetMetrics attaches the usage metric instruments. Optional.
func (h *InsightHandler) SetMetrics(metrics *telemetry.UsageMetrics) {
	h.metrics = metrics
}

// GetInsights runs the detector battery for a device over the lookback
// window, defaulting to the configured window when days is omitted
func (h *InsightHandler) GetInsights(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	windowDays := queryInt(c, "days", h.usageConfig.InsightDefaultDays)

	insights, err := h.insightService.GetInsights(c.Request.Context(), scope,
		c.Query("device_id"), windowDays)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if h.metrics != nil {
		types := make([]string, 0, len(insights))
		for _, insight := range insights {
			types = append(types, string(insight.Type))
		}
		h.metrics.RecordInsights(c.Request.Context(), types)
	}

	h.Success(c, insights)
}
