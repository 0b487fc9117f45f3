package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nurtureapp/nurture-api/internal/domain"
	"github.com/nurtureapp/nurture-api/internal/security/middleware"
	"github.com/nurtureapp/nurture-api/internal/service"
)

// PlantsHandler handles the /plants collection.
type PlantsHandler struct {
	plants *service.PlantService
	logger *slog.Logger
}

// NewPlantsHandler creates a new plants handler
func NewPlantsHandler(plants *service.PlantService, logger *slog.Logger) *PlantsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlantsHandler{
		plants: plants,
		logger: logger,
	}
}

// createPlantRequest carries the catalog id of the species being added.
type createPlantRequest struct {
	ID *int `json:"id"`
}

// updatePlantRequest is the partial plant update payload.
type updatePlantRequest struct {
	Name      *string               `json:"name"`
	Reminders *domain.ReminderBatch `json:"reminders"`
}

// List handles GET /plants
func (h *PlantsHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	plants, err := h.plants.List(r.Context(), owner)
	if err != nil {
		h.logger.Error("failed to list plants", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, plants)
}

// Create handles POST /plants
func (h *PlantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req createPlantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == nil {
		writeMessage(w, http.StatusBadRequest, "id is required")
		return
	}

	plant, err := h.plants.Create(r.Context(), owner, *req.ID)
	if err != nil {
		h.logger.Error("failed to create plant",
			slog.Int("catalog_id", *req.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, plant)
}

// Get handles GET /plants/{id}
func (h *PlantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	plant, err := h.plants.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, plant)
}

// Update handles PUT /plants/{id}
func (h *PlantsHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req updatePlantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	plant, err := h.plants.Update(r.Context(), owner, r.PathValue("id"), service.UpdatePlantInput{
		Name:      req.Name,
		Reminders: req.Reminders,
	})
	if err != nil {
		h.logger.Error("failed to update plant",
			slog.String("plant_id", r.PathValue("id")),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, plant)
}

// Delete handles DELETE /plants/{id}
func (h *PlantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.plants.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "plant deleted")
}

// requireOwner pulls the authenticated user from the request context. The
// auth middleware normally rejects anonymous requests first; this is the
// backstop for routes wired without it.
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := middleware.GetUserFromContext(r.Context())
	if owner == "" {
		writeError(w, domain.ErrMissingIdentity)
		return "", false
	}
	return owner, true
}
