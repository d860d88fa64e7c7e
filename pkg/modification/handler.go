package modification

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/costline/costline/internal/rest"
	"github.com/costline/costline/pkg/costkey"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type LineDTO struct {
	ID          int             `json:"id"`
	SubJobID    *int            `json:"subJobId,omitempty"`
	CostCodeID  int             `json:"costCodeId"`
	CostTypeID  int             `json:"costTypeId"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

type ModificationDTO struct {
	ID            int       `json:"id"`
	UID           string    `json:"uid,omitempty"`
	ProjectID     int       `json:"projectId"`
	Number        string    `json:"number"`
	Title         string    `json:"title,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	EffectiveDate string    `json:"effectiveDate"`
	Status        string    `json:"status"`
	Lines         []LineDTO `json:"lines"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new budget modification")
	w.Header().Set("Content-Type", "application/json")

	projectID, err := strconv.Atoi(mux.Vars(r)["projectId"])
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	var dto ModificationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ProjectID = projectID

	m, err := DTOToModification(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), m)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ModificationToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid modification id", http.StatusBadRequest)
		return
	}

	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ModificationToDTO(m)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	projectID, err := strconv.Atoi(mux.Vars(r)["projectId"])
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	batches, err := h.service.List(r.Context(), projectID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]ModificationDTO, 0, len(batches))
	for _, m := range batches {
		dtos = append(dtos, ModificationToDTO(m))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ModificationToDTO(m Modification) ModificationDTO {
	lines := make([]LineDTO, 0, len(m.Lines))
	for _, line := range m.Lines {
		lines = append(lines, LineDTO{
			ID:          line.ID,
			SubJobID:    line.Key.SubJobID(),
			CostCodeID:  line.Key.CostCodeID,
			CostTypeID:  line.Key.CostTypeID,
			Description: line.Description,
			Amount:      line.Amount,
		})
	}
	return ModificationDTO{
		ID:            m.ID,
		UID:           m.UID,
		ProjectID:     m.ProjectID,
		Number:        m.Number,
		Title:         m.Title,
		Reason:        m.Reason,
		EffectiveDate: m.EffectiveDate.Format("2006-01-02"),
		Status:        string(m.Status),
		Lines:         lines,
	}
}

func DTOToModification(dto ModificationDTO) (Modification, error) {
	effectiveDate, err := time.Parse("2006-01-02", dto.EffectiveDate)
	if err != nil {
		return Modification{}, err
	}
	lines := make([]Line, 0, len(dto.Lines))
	for _, lineDTO := range dto.Lines {
		lines = append(lines, Line{
			Key:         costkey.Normalize(dto.ProjectID, lineDTO.SubJobID, lineDTO.CostCodeID, lineDTO.CostTypeID),
			Description: lineDTO.Description,
			Amount:      lineDTO.Amount,
		})
	}
	return Modification{
		ID:            dto.ID,
		ProjectID:     dto.ProjectID,
		Number:        dto.Number,
		Title:         dto.Title,
		Reason:        dto.Reason,
		EffectiveDate: effectiveDate,
		Lines:         lines,
	}, nil
}
