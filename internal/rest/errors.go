package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

// WriteError maps engine errors onto HTTP status codes and writes a JSON body.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, ErrOutOfRange):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrConfiguration):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Errorf("internal error: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(errorResponse{Error: err.Error()}); encodeErr != nil {
		log.Errorf("failed to encode error response: %v", encodeErr)
	}
}
