package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"legal-battle-service/internal/domain"
	"legal-battle-service/internal/logging"
)

var errInvalidBody = errors.New("invalid request body")

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAction), errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBattleNotFound),
		errors.Is(err, domain.ErrDeckNotFound),
		errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBattleCompleted),
		errors.Is(err, domain.ErrRoundInProgress),
		errors.Is(err, domain.ErrInvalidQuestionState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotEnoughQuestions):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type errorPayload struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func errorFor(err error) errorPayload {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.Error("request failed", err, nil)
		msg = "internal error"
	}
	return errorPayload{Message: msg, Status: status}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	payload := errorFor(err)
	writeJSON(w, payload.Status, map[string]errorPayload{"error": payload})
}
