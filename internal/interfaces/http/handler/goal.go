package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	wellbeingapp "github.com/screentime/backend/internal/application/wellbeing"
	"github.com/screentime/backend/internal/domain/wellbeing"
)

// GoalHandler handles goal API endpoints
type GoalHandler struct {
	BaseHandler
	goalService *wellbeingapp.GoalService
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goalService *wellbeingapp.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

// CreateGoalRequest represents a goal creation request
type CreateGoalRequest struct {
	DeviceID      string     `json:"device_id" binding:"required"`
	Name          string     `json:"name" binding:"required,min=1,max=255"`
	Type          string     `json:"type" binding:"required"`
	TargetMinutes int        `json:"target_minutes"`
	AppID         *string    `json:"app_id"`
	CategoryID    *string    `json:"category_id"`
	EndDate       *time.Time `json:"end_date"`
}

// UpdateGoalRequest represents a goal update request. Omitted fields are
// left unchanged.
type UpdateGoalRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=1,max=255"`
	TargetMinutes *int    `json:"target_minutes"`
	Status        *string `json:"status"`
}

// GoalResponse represents a goal in the response
type GoalResponse struct {
	ID            string     `json:"id"`
	DeviceID      string     `json:"device_id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	TargetMinutes int        `json:"target_minutes"`
	AppID         *string    `json:"app_id,omitempty"`
	CategoryID    *string    `json:"category_id,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toGoalResponse(goal *wellbeing.Goal) GoalResponse {
	resp := GoalResponse{
		ID:            goal.ID.String(),
		DeviceID:      goal.DeviceID.String(),
		Name:          goal.Name,
		Type:          string(goal.Type),
		TargetMinutes: goal.TargetMinutes,
		EndDate:       goal.EndDate,
		Status:        string(goal.Status),
		CreatedAt:     goal.CreatedAt,
	}
	if goal.AppID != nil {
		id := goal.AppID.String()
		resp.AppID = &id
	}
	if goal.CategoryID != nil {
		id := goal.CategoryID.String()
		resp.CategoryID = &id
	}
	return resp
}

// Create creates a goal for a device
func (h *GoalHandler) Create(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	cmd := wellbeingapp.CreateGoalCommand{
		DeviceIdentifier: req.DeviceID,
		Name:             req.Name,
		Type:             req.Type,
		TargetMinutes:    req.TargetMinutes,
		EndDate:          req.EndDate,
	}
	if req.AppID != nil && *req.AppID != "" {
		appID, err := uuid.Parse(*req.AppID)
		if err != nil {
			h.BadRequest(c, "Invalid app ID format")
			return
		}
		cmd.AppID = &appID
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			h.BadRequest(c, "Invalid category ID format")
			return
		}
		cmd.CategoryID = &categoryID
	}

	goal, err := h.goalService.CreateGoal(c.Request.Context(), scope, cmd)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toGoalResponse(goal))
}

// Get retrieves a goal by ID
func (h *GoalHandler) Get(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	goalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid goal ID format")
		return
	}

	goal, err := h.goalService.GetGoal(c.Request.Context(), scope, goalID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toGoalResponse(goal))
}

// List retrieves all goals for a device
func (h *GoalHandler) List(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	goals, err := h.goalService.ListGoals(c.Request.Context(), scope, c.Query("device_id"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]GoalResponse, 0, len(goals))
	for _, goal := range goals {
		responses = append(responses, toGoalResponse(goal))
	}
	h.Success(c, responses)
}

// Update updates a goal's name, target, or status
func (h *GoalHandler) Update(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	goalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid goal ID format")
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	goal, err := h.goalService.UpdateGoal(c.Request.Context(), scope, goalID, wellbeingapp.UpdateGoalCommand{
		Name:          req.Name,
		TargetMinutes: req.TargetMinutes,
		Status:        req.Status,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toGoalResponse(goal))
}

// Delete removes a goal
func (h *GoalHandler) Delete(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	goalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid goal ID format")
		return
	}

	if err := h.goalService.DeleteGoal(c.Request.Context(), scope, goalID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetProgress evaluates one goal's progress against current usage
func (h *GoalHandler) GetProgress(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	goalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid goal ID format")
		return
	}

	progress, err := h.goalService.GetGoalProgress(c.Request.Context(), scope, goalID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, progress)
}

// GetAllProgress evaluates every active goal for a device
func (h *GoalHandler) GetAllProgress(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	progress, err := h.goalService.GetAllGoalProgress(c.Request.Context(), scope, c.Query("device_id"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, progress)
}
