package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/apex/log"

	"gemini-relay/internal/models"
	"gemini-relay/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Debug("failed to write JSON response")
	}
}

func errorResp(message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error:     message,
		RequestID: r.Header.Get("X-Request-ID"),
	}
}

func failureResp(message string, r *http.Request) models.FailureResponse {
	return models.FailureResponse{
		Message:   message,
		RequestID: r.Header.Get("X-Request-ID"),
	}
}

// handleServiceError maps client input errors to 400 and everything else to
// 500 with the underlying message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, errorResp(validationErr.Message, r))
		return
	}
	writeJSON(w, http.StatusInternalServerError, failureResp(err.Error(), r))
}
