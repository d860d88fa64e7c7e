package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/costline/costline/internal/rest"
	"github.com/costline/costline/pkg/costkey"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// KeyResolver resolves a budget line id to its identity key, so the entries
// endpoint can filter by budget line without the ledger stores knowing about
// budget lines.
type KeyResolver func(ctx context.Context, projectID, budgetLineID int) (costkey.Key, error)

type transitionRequestDTO struct {
	Action string `json:"action"`
}

type transitionResponseDTO struct {
	NewState string `json:"newState"`
}

type EntryDTO struct {
	Ledger      string `json:"ledger"`
	BatchID     int    `json:"batchId"`
	LineID      int    `json:"lineId"`
	Reference   string `json:"reference,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	ProjectID   int    `json:"projectId"`
	SubJobID    *int   `json:"subJobId,omitempty"`
	CostCodeID  int    `json:"costCodeId"`
	CostTypeID  int    `json:"costTypeId"`
	Amount      string `json:"amount"`
}

type Handler struct {
	registry   *Registry
	resolveKey KeyResolver
}

func NewHandler(registry *Registry, resolveKey KeyResolver) *Handler {
	return &Handler{registry: registry, resolveKey: resolveKey}
}

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	ledgerType, err := ParseType(vars["ledgerType"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	batchID, err := strconv.Atoi(vars["batchId"])
	if err != nil {
		http.Error(w, "invalid batch id", http.StatusBadRequest)
		return
	}

	var dto transitionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dto.Action == "" {
		http.Error(w, "action is required", http.StatusBadRequest)
		return
	}

	log.Debugf("Applying action %q to %s batch %d", dto.Action, ledgerType, batchID)
	newState, err := h.registry.Transition(r.Context(), ledgerType, batchID, Action(dto.Action))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(transitionResponseDTO{NewState: string(newState)}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	ledgerType, err := ParseType(vars["ledgerType"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	projectID, err := strconv.Atoi(r.URL.Query().Get("projectId"))
	if err != nil {
		http.Error(w, "projectId is required", http.StatusBadRequest)
		return
	}

	filter := Filter{ProjectID: projectID}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status := State(statusParam)
		filter.Status = &status
	}
	if budgetLineParam := r.URL.Query().Get("budgetLineId"); budgetLineParam != "" {
		budgetLineID, err := strconv.Atoi(budgetLineParam)
		if err != nil {
			http.Error(w, "invalid budgetLineId", http.StatusBadRequest)
			return
		}
		key, err := h.resolveKey(r.Context(), projectID, budgetLineID)
		if err != nil {
			rest.WriteError(w, err)
			return
		}
		filter.Key = &key
	}

	entries, err := h.registry.ListEntries(r.Context(), ledgerType, filter)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, EntryToDTO(entry))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func EntryToDTO(entry Entry) EntryDTO {
	return EntryDTO{
		Ledger:      string(entry.Ledger),
		BatchID:     entry.BatchID,
		LineID:      entry.LineID,
		Reference:   entry.Reference,
		Description: entry.Description,
		Status:      string(entry.Status),
		ProjectID:   entry.Key.ProjectID,
		SubJobID:    entry.Key.SubJobID(),
		CostCodeID:  entry.Key.CostCodeID,
		CostTypeID:  entry.Key.CostTypeID,
		Amount:      entry.Amount.String(),
	}
}
