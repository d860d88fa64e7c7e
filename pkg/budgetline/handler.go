package budgetline

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/costline/costline/internal/rest"
	"github.com/costline/costline/pkg/costkey"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BudgetLineDTO struct {
	ID             int              `json:"id"`
	ProjectID      int              `json:"projectId"`
	SubJobID       *int             `json:"subJobId,omitempty"`
	CostCodeID     int              `json:"costCodeId"`
	CostTypeID     int              `json:"costTypeId"`
	Description    string           `json:"description,omitempty"`
	OriginalAmount decimal.Decimal  `json:"originalAmount"`
	Quantity       *decimal.Decimal `json:"quantity,omitempty"`
	UnitCost       *decimal.Decimal `json:"unitCost,omitempty"`
	ForecastMethod string           `json:"forecastMethod"`
	ManualForecast *decimal.Decimal `json:"manualForecast,omitempty"`
	CurveID        *int             `json:"curveId,omitempty"`
	Active         bool             `json:"active"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new budget line")
	w.Header().Set("Content-Type", "application/json")

	projectID, err := pathInt(r, "projectId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto BudgetLineDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ProjectID = projectID

	created, err := h.service.Create(r.Context(), DTOToLine(dto))
	if err != nil {
		if errors.Is(err, ErrDuplicateLine) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(LineToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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

	line, err := h.service.Get(r.Context(), projectID, id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(LineToDTO(line)); err != nil {
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
	includeInactive := r.URL.Query().Has("includeInactive")

	lines, err := h.service.List(r.Context(), projectID, includeInactive)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]BudgetLineDTO, 0, len(lines))
	for _, line := range lines {
		dtos = append(dtos, LineToDTO(line))
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

	var dto BudgetLineDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dto.ID != 0 && dto.ID != id {
		http.Error(w, "budget line id in body does not match path", http.StatusBadRequest)
		return
	}
	dto.ID = id
	dto.ProjectID = projectID

	updated, err := h.service.Update(r.Context(), DTOToLine(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(LineToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.service.Deactivate(r.Context(), projectID, id); err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func LineToDTO(line BudgetLine) BudgetLineDTO {
	return BudgetLineDTO{
		ID:             line.ID,
		ProjectID:      line.Key.ProjectID,
		SubJobID:       line.Key.SubJobID(),
		CostCodeID:     line.Key.CostCodeID,
		CostTypeID:     line.Key.CostTypeID,
		Description:    line.Description,
		OriginalAmount: line.OriginalAmount,
		Quantity:       line.Quantity,
		UnitCost:       line.UnitCost,
		ForecastMethod: string(line.ForecastMethod),
		ManualForecast: line.ManualForecast,
		CurveID:        line.CurveID,
		Active:         line.Active,
	}
}

func DTOToLine(dto BudgetLineDTO) BudgetLine {
	return BudgetLine{
		ID:             dto.ID,
		Key:            costkey.Normalize(dto.ProjectID, dto.SubJobID, dto.CostCodeID, dto.CostTypeID),
		Description:    dto.Description,
		OriginalAmount: dto.OriginalAmount,
		Quantity:       dto.Quantity,
		UnitCost:       dto.UnitCost,
		ForecastMethod: ForecastMethod(dto.ForecastMethod),
		ManualForecast: dto.ManualForecast,
		CurveID:        dto.CurveID,
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
