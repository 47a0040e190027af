package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/veche/internal/repository"
	"github.com/freeeve/veche/internal/service"
	"github.com/freeeve/veche/pkg/veche"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service and engine errors to HTTP responses.
// Rejected actions carry their code so clients can react to it.
func writeServiceError(w http.ResponseWriter, err error) {
	var ae *veche.ActionError
	switch {
	case errors.As(err, &ae):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": ae.Message,
			"code":  string(ae.Code),
		})
	case errors.Is(err, service.ErrMatchNotFound), errors.Is(err, service.ErrStateMissing):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotInMatch):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrMatchFull),
		errors.Is(err, service.ErrMatchNotWaiting),
		errors.Is(err, service.ErrMatchNotActive),
		errors.Is(err, service.ErrAlreadyJoined),
		errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
