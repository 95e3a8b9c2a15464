package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	directoryapp "github.com/screentime/backend/internal/application/directory"
	"github.com/screentime/backend/internal/domain/directory"
)

// DeviceHandler handles device directory API endpoints
type DeviceHandler struct {
	BaseHandler
	deviceService *directoryapp.DeviceService
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(deviceService *directoryapp.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
	}
}

// RegisterDeviceRequest represents a device registration request
type RegisterDeviceRequest struct {
	Identifier string `json:"identifier" binding:"required,min=1,max=255"`
	Name       string `json:"name" binding:"max=255"`
	Platform   string `json:"platform" binding:"max=64"`
}

// DeviceResponse represents a device in the response
type DeviceResponse struct {
	ID         string     `json:"id"`
	Identifier string     `json:"identifier"`
	OwnerID    string     `json:"owner_id"`
	Name       string     `json:"name"`
	Platform   string     `json:"platform,omitempty"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toDeviceResponse(device *directory.Device) DeviceResponse {
	return DeviceResponse{
		ID:         device.ID.String(),
		Identifier: device.Identifier,
		OwnerID:    device.OwnerID.String(),
		Name:       device.Name,
		Platform:   device.Platform,
		LastSeenAt: device.LastSeenAt,
		CreatedAt:  device.CreatedAt,
	}
}

// Register registers a device for the requesting user. Re-registering an
// identifier the user already owns refreshes its metadata.
func (h *DeviceHandler) Register(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	device, err := h.deviceService.RegisterDevice(c.Request.Context(), scope, directoryapp.RegisterDeviceCommand{
		Identifier: req.Identifier,
		Name:       req.Name,
		Platform:   req.Platform,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toDeviceResponse(device))
}

// Get resolves a device identifier visible to the requester
func (h *DeviceHandler) Get(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	device, err := h.deviceService.GetDevice(c.Request.Context(), scope, c.Param("identifier"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toDeviceResponse(device))
}

// List retrieves the devices visible to the requester
func (h *DeviceHandler) List(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		h.Unauthorized(c, "User identity required")
		return
	}

	devices, err := h.deviceService.ListDevices(c.Request.Context(), scope)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]DeviceResponse, 0, len(devices))
	for _, device := range devices {
		responses = append(responses, toDeviceResponse(device))
	}
	h.Success(c, responses)
}
