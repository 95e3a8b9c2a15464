package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	wellbeingapp "github.com/screentime/backend/internal/application/wellbeing"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// CategoryHandler handles app category and per-app limit API endpoints
type CategoryHandler struct {
	BaseHandler
	categoryService *wellbeingapp.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *wellbeingapp.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

// CreateCategoryRequest represents a category creation request
type CreateCategoryRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Name     string `json:"name" binding:"required,min=1,max=255"`
}

// CategoryAppRequest represents an app membership change request
type CategoryAppRequest struct {
	AppID string `json:"app_id" binding:"required,uuid"`
}

// CreateLimitRequest represents a per-app daily limit creation request
type CreateLimitRequest struct {
	DeviceID          string `json:"device_id" binding:"required"`
	AppID             string `json:"app_id" binding:"required,uuid"`
	DailyLimitMinutes int    `json:"daily_limit_minutes"`
}

// CategoryResponse represents a category in the response
type CategoryResponse struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LimitResponse represents a per-app limit in the response
type LimitResponse struct {
	ID                string    `json:"id"`
	DeviceID          string    `json:"device_id"`
	AppID             string    `json:"app_id"`
	DailyLimitMinutes int       `json:"daily_limit_minutes"`
	Enabled           bool      `json:"enabled"`
	CreatedAt         time.Time `json:"created_at"`
}

func toCategoryResponse(category *wellbeing.AppCategory) CategoryResponse {
	return CategoryResponse{
		ID:        category.ID.String(),
		DeviceID:  category.DeviceID.String(),
		Name:      category.Name,
		CreatedAt: category.CreatedAt,
	}
}

func toLimitResponse(limit *wellbeing.AppLimit) LimitResponse {
	return LimitResponse{
		ID:                limit.ID.String(),
		DeviceID:          limit.DeviceID.String(),
		AppID:             limit.AppID.String(),
		DailyLimitMinutes: limit.DailyLimitMinutes,
		Enabled:           limit.Enabled,
		CreatedAt:         limit.CreatedAt,
	}
}

// CreateCategory creates an app category for a device
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), scope, wellbeingapp.CreateCategoryCommand{
		DeviceIdentifier: req.DeviceID,
		Name:             req.Name,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toCategoryResponse(category))
}

// ListCategories retrieves all categories for a device
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	categories, err := h.categoryService.ListCategories(c.Request.Context(), scope, c.Query("device_id"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, toCategoryResponse(category))
	}
	h.Success(c, responses)
}

// AddApp adds an app to a category. Idempotent.
func (h *CategoryHandler) AddApp(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID format")
		return
	}

	var req CategoryAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	appID, err := uuid.Parse(req.AppID)
	if err != nil {
		h.BadRequest(c, "Invalid app ID format")
		return
	}

	if err := h.categoryService.AddAppToCategory(c.Request.Context(), scope, categoryID, appID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// RemoveApp removes an app from a category
func (h *CategoryHandler) RemoveApp(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID format")
		return
	}
	appID, err := uuid.Parse(c.Param("app_id"))
	if err != nil {
		h.BadRequest(c, "Invalid app ID format")
		return
	}

	if err := h.categoryService.RemoveAppFromCategory(c.Request.Context(), scope, categoryID, appID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ListApps returns the IDs of the apps in a category
func (h *CategoryHandler) ListApps(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID format")
		return
	}

	appIDs, err := h.categoryService.ListCategoryApps(c.Request.Context(), scope, categoryID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, appIDs)
}

// CreateLimit configures a per-app daily limit on a device
func (h *CategoryHandler) CreateLimit(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req CreateLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	appID, err := uuid.Parse(req.AppID)
	if err != nil {
		h.BadRequest(c, "Invalid app ID format")
		return
	}

	limit, err := h.categoryService.CreateLimit(c.Request.Context(), scope, wellbeingapp.CreateLimitCommand{
		DeviceIdentifier:  req.DeviceID,
		AppID:             appID,
		DailyLimitMinutes: req.DailyLimitMinutes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toLimitResponse(limit))
}

// ListLimits retrieves all limits for a device
func (h *CategoryHandler) ListLimits(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	limits, err := h.categoryService.ListLimits(c.Request.Context(), scope, c.Query("device_id"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]LimitResponse, 0, len(limits))
	for _, limit := range limits {
		responses = append(responses, toLimitResponse(limit))
	}
	h.Success(c, responses)
}

// DeleteLimit removes a per-app limit
func (h *CategoryHandler) DeleteLimit(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	limitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid limit ID format")
		return
	}

	if err := h.categoryService.DeleteLimit(c.Request.Context(), scope, c.Query("device_id"), limitID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
