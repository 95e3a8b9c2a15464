package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	usageapp "github.com/screentime/backend/internal/application/usage"
	"github.com/screentime/backend/internal/infrastructure/config"
	"github.com/screentime/backend/internal/infrastructure/telemetry"
)

// UsageHandler handles usage ingestion and summary API endpoints
type UsageHandler struct {
	BaseHandler
	ingestionService   *usageapp.IngestionService
	aggregationService *usageapp.AggregationService
	hourlyService      *usageapp.HourlyService
	usageConfig        config.UsageConfig
	metrics            *telemetry.UsageMetrics
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(
	ingestionService *usageapp.IngestionService,
	aggregationService *usageapp.AggregationService,
	hourlyService *usageapp.HourlyService,
	usageConfig config.UsageConfig,
) *UsageHandler {
	return &UsageHandler{
		ingestionService:   ingestionService,
		aggregationService: aggregationService,
		hourlyService:      hourlyService,
		usageConfig:        usageConfig,
	}
}

// SetMetrics attaches the usage metric instruments. Optional; without it the
// handler simply doesn't report counters.
func (h *UsageHandler) SetMetrics(metrics *telemetry.UsageMetrics) {
	h.metrics = metrics
}

// RecordEventRequest represents a raw usage event submission
type RecordEventRequest struct {
	DeviceID        string    `json:"device_id" binding:"required"`
	PackageName     string    `json:"package_name" binding:"required"`
	AppName         string    `json:"app_name"`
	DurationSeconds float64   `json:"duration_seconds"`
	Timestamp       time.Time `json:"timestamp"`
	// EventID is the optional client-supplied idempotency key
	EventID string `json:"event_id" binding:"max=128"`
}

// SnapshotEntryRequest is one per-app row of a snapshot sync batch
type SnapshotEntryRequest struct {
	PackageName  string `json:"package_name"`
	AppName      string `json:"app_name"`
	TotalMinutes int    `json:"total_minutes"`
	// Date optionally overrides the batch date for this entry
	Date string `json:"date"`
}

// SyncSnapshotsRequest represents a daily snapshot batch submission
type SyncSnapshotsRequest struct {
	DeviceID string                 `json:"device_id" binding:"required"`
	Date     string                 `json:"date"`
	Entries  []SnapshotEntryRequest `json:"entries" binding:"required"`
}

// RecordEvent ingests one raw usage event. Duplicate submissions (by event
// ID or the near-duplicate window) return the stored event unchanged.
func (h *UsageHandler) RecordEvent(c *gin.Context) {
	var req RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.ingestionService.RecordEvent(c.Request.Context(), usageapp.RecordEventCommand{
		DeviceIdentifier: req.DeviceID,
		PackageName:      req.PackageName,
		AppName:          req.AppName,
		DurationSeconds:  req.DurationSeconds,
		Timestamp:        req.Timestamp,
		EventID:          req.EventID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if h.metrics != nil {
		if result.Duplicate {
			h.metrics.RecordEventDeduplicated(c.Request.Context())
		} else {
			h.metrics.RecordEventIngested(c.Request.Context(), result.Clamped)
		}
	}

	h.Created(c, result)
}

// SyncSnapshots ingests a daily snapshot batch. Rows replace any previous
// snapshot for the same (device, app, day) key.
func (h *UsageHandler) SyncSnapshots(c *gin.Context) {
	var req SyncSnapshotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	entries := make([]usageapp.SnapshotEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, usageapp.SnapshotEntry{
			PackageName:  entry.PackageName,
			AppName:      entry.AppName,
			TotalMinutes: entry.TotalMinutes,
			Date:         entry.Date,
		})
	}

	result, err := h.ingestionService.SyncSnapshots(c.Request.Context(), usageapp.SyncSnapshotsCommand{
		DeviceIdentifier: req.DeviceID,
		Date:             req.Date,
		Entries:          entries,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSnapshotSync(c.Request.Context(), result.Synced, result.Rejected)
	}

	h.Success(c, result)
}

// GetDailySummary returns the per-app breakdown for one device and day
func (h *UsageHandler) GetDailySummary(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	summary, err := h.aggregationService.GetDailySummary(c.Request.Context(), scope,
		c.Query("device_id"), c.Query("date"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetWeeklySummary returns the seven-day breakdown starting at start_date
func (h *UsageHandler) GetWeeklySummary(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	summary, err := h.aggregationService.GetWeeklySummary(c.Request.Context(), scope,
		c.Query("device_id"), c.Query("start_date"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetRangeSummary returns the breakdown over an arbitrary day range
func (h *UsageHandler) GetRangeSummary(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	summary, err := h.aggregationService.GetRangeSummary(c.Request.Context(), scope,
		c.Query("device_id"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetCombinedDailySummary returns one day's breakdown across every device
// the requester may see
func (h *UsageHandler) GetCombinedDailySummary(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	summary, err := h.aggregationService.GetCombinedDailySummary(c.Request.Context(), scope, c.Query("date"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetCombinedRangeSummary returns a range breakdown across every device the
// requester may see
func (h *UsageHandler) GetCombinedRangeSummary(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	summary, err := h.aggregationService.GetCombinedRangeSummary(c.Request.Context(), scope,
		c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetHourlyUsage returns the 24-bucket hour-of-day breakdown for one day
func (h *UsageHandler) GetHourlyUsage(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	usage, err := h.hourlyService.GetHourlyUsage(c.Request.Context(), scope,
		c.Query("device_id"), c.Query("date"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, usage)
}

// GetDailyHourly returns per-day hourly breakdowns over a day range
func (h *UsageHandler) GetDailyHourly(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	days, err := h.hourlyService.GetDailyHourly(c.Request.Context(), scope,
		c.Query("device_id"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, days)
}

// GetPeakHours returns the device's peak-usage profile over the lookback
// window, defaulting to the configured window when days is omitted
func (h *UsageHandler) GetPeakHours(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	windowDays := queryInt(c, "days", h.usageConfig.PeakDefaultDays)

	peaks, err := h.hourlyService.GetPeakHours(c.Request.Context(), scope,
		c.Query("device_id"), windowDays)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, peaks)
}
