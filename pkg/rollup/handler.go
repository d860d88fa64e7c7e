package rollup

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/costline/costline/internal/rest"
	"github.com/costline/costline/pkg/budgetline"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type ResultDTO struct {
	BudgetLineID          int             `json:"budgetLineId"`
	OriginalAmount        decimal.Decimal `json:"originalAmount"`
	RevisedBudget         decimal.Decimal `json:"revisedBudget"`
	CommittedCost         decimal.Decimal `json:"committedCost"`
	JobToDateCost         decimal.Decimal `json:"jobToDateCost"`
	ForecastToComplete    decimal.Decimal `json:"forecastToComplete"`
	EstimatedAtCompletion decimal.Decimal `json:"estimatedAtCompletion"`
	ProjectedCost         decimal.Decimal `json:"projectedCost"`
	ProjectedOverUnder    decimal.Decimal `json:"projectedOverUnder"`
}

type SetForecastDTO struct {
	Method       string           `json:"method"`
	ManualAmount *decimal.Decimal `json:"manualAmount,omitempty"`
	CurveID      *int             `json:"curveId,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetRollup(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.service.GetRollup(r.Context(), projectID, id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ResultToDTO(result)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) SetForecast(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := pathInt(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto SetForecastDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.SetForecast(r.Context(), id,
		budgetline.ForecastMethod(dto.Method), dto.ManualAmount, dto.CurveID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ResultToDTO(result)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ResultToDTO(r Result) ResultDTO {
	return ResultDTO{
		BudgetLineID:          r.BudgetLineID,
		OriginalAmount:        r.OriginalAmount,
		RevisedBudget:         r.RevisedBudget,
		CommittedCost:         r.CommittedCost,
		JobToDateCost:         r.JobToDateCost,
		ForecastToComplete:    r.ForecastToComplete,
		EstimatedAtCompletion: r.EstimatedAtCompletion,
		ProjectedCost:         r.ProjectedCost,
		ProjectedOverUnder:    r.ProjectedOverUnder,
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
