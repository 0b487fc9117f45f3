package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nurtureapp/nurture-api/internal/domain"
	"github.com/nurtureapp/nurture-api/internal/service"
)

// RemindersHandler handles reminder sub-resources under /plants/{id}.
type RemindersHandler struct {
	plants *service.PlantService
	logger *slog.Logger
}

// NewRemindersHandler creates a new reminders handler
func NewRemindersHandler(plants *service.PlantService, logger *slog.Logger) *RemindersHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemindersHandler{
		plants: plants,
		logger: logger,
	}
}

// Add handles POST /plants/{id}/reminders
func (h *RemindersHandler) Add(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var in domain.ReminderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reminder, err := h.plants.AddReminder(r.Context(), owner, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, reminder)
}

// Update handles PUT /plants/{id}/reminders/{rid}
func (h *RemindersHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var in domain.ReminderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reminder, err := h.plants.UpdateReminder(r.Context(), owner, r.PathValue("id"), r.PathValue("rid"), in)
	if err != nil {
		h.logger.Error("failed to update reminder",
			slog.String("plant_id", r.PathValue("id")),
			slog.String("reminder_id", r.PathValue("rid")),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, reminder)
}

// Delete handles DELETE /plants/{id}/reminders/{rid}
func (h *RemindersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.plants.DeleteReminder(r.Context(), owner, r.PathValue("id"), r.PathValue("rid")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "reminder deleted")
}

// Complete handles POST /plants/{id}/reminders/{rid}/complete
func (h *RemindersHandler) Complete(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	reminder, err := h.plants.CompleteReminder(r.Context(), owner, r.PathValue("id"), r.PathValue("rid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, reminder)
}
