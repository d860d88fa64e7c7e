package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/costline/costline/internal/rest"
)

type EntryDTO struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   int       `json:"entityId"`
	Action     string    `json:"action"`
	FromState  string    `json:"fromState,omitempty"`
	ToState    string    `json:"toState,omitempty"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	entityType := r.URL.Query().Get("entityType")
	if entityType == "" {
		http.Error(w, "entityType is required", http.StatusBadRequest)
		return
	}
	entityID, err := strconv.Atoi(r.URL.Query().Get("entityId"))
	if err != nil {
		http.Error(w, "entityId is required", http.StatusBadRequest)
		return
	}

	entries, err := h.repo.List(r.Context(), entityType, entityID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, EntryDTO{
			ID:         entry.ID,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Action:     entry.Action,
			FromState:  entry.FromState,
			ToState:    entry.ToState,
			Actor:      entry.Actor,
			OccurredAt: entry.OccurredAt,
		})
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
