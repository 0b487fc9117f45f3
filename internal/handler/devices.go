package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nurtureapp/nurture-api/internal/domain"
)

// DevicesHandler manages push notification device registrations.
type DevicesHandler struct {
	devices domain.DeviceRepository
	logger  *slog.Logger
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(devices domain.DeviceRepository, logger *slog.Logger) *DevicesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DevicesHandler{
		devices: devices,
		logger:  logger,
	}
}

type registerDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Register handles POST /devices
func (h *DevicesHandler) Register(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeMessage(w, http.StatusBadRequest, "token is required")
		return
	}

	device := domain.Device{
		Token:    req.Token,
		Owner:    owner,
		Platform: req.Platform,
	}
	if err := h.devices.Register(r.Context(), &device); err != nil {
		h.logger.Error("failed to register device", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, device)
}

// Remove handles DELETE /devices/{token}
func (h *DevicesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	removed, err := h.devices.Remove(r.Context(), owner, r.PathValue("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	if removed == 0 {
		writeError(w, domain.NewNotFoundError("device"))
		return
	}
	writeMessage(w, http.StatusOK, "device removed")
}
