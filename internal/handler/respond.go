package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nurtureapp/nurture-api/internal/domain"
)

// dataResponse is the envelope for successful responses carrying a payload.
type dataResponse struct {
	Data any `json:"data"`
}

// messageResponse is the envelope for confirmations and errors.
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, dataResponse{Data: data})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, messageResponse{Message: message})
}

// writeError maps a domain error to its status code with a generic message.
// Clients never see persistence or upstream internals.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingIdentity):
		writeMessage(w, http.StatusUnauthorized, "You are not logged in.")
	case domain.IsValidationError(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFoundError(err):
		writeMessage(w, http.StatusNotFound, err.Error())
	case domain.IsUpstreamError(err):
		writeMessage(w, http.StatusInternalServerError, "upstream service failed")
	default:
		writeMessage(w, http.StatusInternalServerError, "something went wrong")
	}
}
