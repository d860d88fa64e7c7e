package markup

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/costline/costline/internal/rest"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type MarkupDTO struct {
	ID               int             `json:"id"`
	ProjectID        int             `json:"projectId"`
	MarkupType       string          `json:"markupType"`
	Percentage       decimal.Decimal `json:"percentage"`
	CalculationOrder int             `json:"calculationOrder"`
	Compound         bool            `json:"compound"`
}

type ContributionDTO struct {
	MarkupType string          `json:"markupType"`
	Percentage decimal.Decimal `json:"percentage"`
	Compound   bool            `json:"compound"`
	Amount     decimal.Decimal `json:"amount"`
}

type BreakdownDTO struct {
	Base          decimal.Decimal   `json:"base"`
	Contributions []ContributionDTO `json:"contributions"`
	Total         decimal.Decimal   `json:"total"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new vertical markup")
	w.Header().Set("Content-Type", "application/json")

	projectID, err := pathInt(r, "projectId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto MarkupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ProjectID = projectID

	created, err := h.service.Create(r.Context(), DTOToMarkup(dto))
	if err != nil {
		if errors.Is(err, ErrDuplicateMarkup) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(MarkupToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	projectID, err := pathInt(r, "projectId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	markups, err := h.service.List(r.Context(), projectID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]MarkupDTO, 0, len(markups))
	for _, m := range markups {
		dtos = append(dtos, MarkupToDTO(m))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	projectID, err := pathInt(r, "projectId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto MarkupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ID = id
	dto.ProjectID = projectID

	updated, err := h.service.Update(r.Context(), DTOToMarkup(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(MarkupToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func MarkupToDTO(m Markup) MarkupDTO {
	return MarkupDTO{
		ID:               m.ID,
		ProjectID:        m.ProjectID,
		MarkupType:       m.MarkupType,
		Percentage:       m.Percentage,
		CalculationOrder: m.CalculationOrder,
		Compound:         m.Compound,
	}
}

func DTOToMarkup(dto MarkupDTO) Markup {
	return Markup{
		ID:               dto.ID,
		ProjectID:        dto.ProjectID,
		MarkupType:       dto.MarkupType,
		Percentage:       dto.Percentage,
		CalculationOrder: dto.CalculationOrder,
		Compound:         dto.Compound,
	}
}

func BreakdownToDTO(b Breakdown) BreakdownDTO {
	dto := BreakdownDTO{Base: b.Base, Total: b.Total, Contributions: []ContributionDTO{}}
	for _, c := range b.Contributions {
		dto.Contributions = append(dto.Contributions, ContributionDTO{
			MarkupType: c.MarkupType,
			Percentage: c.Percentage,
			Compound:   c.Compound,
			Amount:     c.Amount,
		})
	}
	return dto
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
