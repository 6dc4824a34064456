package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"feedbacksurvey/internal/model"
	"feedbacksurvey/internal/repository"
	"feedbacksurvey/internal/service"
	"feedbacksurvey/internal/survey"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps domain errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, survey.ErrInvalidTransition),
		errors.Is(err, survey.ErrAwaitingConfirmation),
		errors.Is(err, service.ErrNoConfirmChannel):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, survey.ErrInvalidOption),
		errors.Is(err, survey.ErrKindMismatch),
		errors.Is(err, model.ErrInvalidAnswerValue):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrShuttingDown):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
