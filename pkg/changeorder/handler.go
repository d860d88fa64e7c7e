package changeorder

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/costline/costline/internal/rest"
	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/costline/costline/pkg/markup"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type LineDTO struct {
	ID          int             `json:"id"`
	ProjectID   int             `json:"projectId"`
	SubJobID    *int            `json:"subJobId,omitempty"`
	CostCodeID  int             `json:"costCodeId"`
	CostTypeID  int             `json:"costTypeId"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

type ChangeOrderDTO struct {
	ID            int       `json:"id"`
	UID           string    `json:"uid,omitempty"`
	ContractID    int       `json:"contractId"`
	ProjectID     int       `json:"projectId"`
	Number        string    `json:"number"`
	Title         string    `json:"title,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	EffectiveDate string    `json:"effectiveDate,omitempty"`
	Status        string    `json:"status"`
	Lines         []LineDTO `json:"lines"`
}

type PriceRequestDTO struct {
	ProjectID int             `json:"projectId"`
	BaseCost  decimal.Decimal `json:"baseCost"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new change order")
	w.Header().Set("Content-Type", "application/json")

	contractID, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto ChangeOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ContractID = contractID

	co, err := DTOToChangeOrder(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), co)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ChangeOrderToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := pathInt(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	co, err := h.service.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ChangeOrderToDTO(co)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	contractID, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	batches, err := h.service.ListByContract(r.Context(), contractID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]ChangeOrderDTO, 0, len(batches))
	for _, co := range batches {
		dtos = append(dtos, ChangeOrderToDTO(co))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Price quotes a cost base through the project's vertical markups without
// touching the ledger.
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto PriceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	breakdown, err := h.service.Price(r.Context(), dto.ProjectID, dto.BaseCost)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(markup.BreakdownToDTO(breakdown)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ChangeOrderToDTO(co ChangeOrder) ChangeOrderDTO {
	dto := ChangeOrderDTO{
		ID:         co.ID,
		UID:        co.UID,
		ContractID: co.ContractID,
		ProjectID:  co.ProjectID,
		Number:     co.Number,
		Title:      co.Title,
		Reason:     co.Reason,
		Status:     string(co.Status),
		Lines:      []LineDTO{},
	}
	if !co.EffectiveDate.IsZero() {
		dto.EffectiveDate = co.EffectiveDate.Format("2006-01-02")
	}
	for _, line := range co.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ID:          line.ID,
			ProjectID:   line.Key.ProjectID,
			SubJobID:    line.Key.SubJobID(),
			CostCodeID:  line.Key.CostCodeID,
			CostTypeID:  line.Key.CostTypeID,
			Description: line.Description,
			Amount:      line.Amount,
		})
	}
	return dto
}

func DTOToChangeOrder(dto ChangeOrderDTO) (ChangeOrder, error) {
	co := ChangeOrder{
		ID:         dto.ID,
		UID:        dto.UID,
		ContractID: dto.ContractID,
		ProjectID:  dto.ProjectID,
		Number:     dto.Number,
		Title:      dto.Title,
		Reason:     dto.Reason,
		Status:     ledger.State(dto.Status),
	}
	if dto.EffectiveDate != "" {
		date, err := time.Parse("2006-01-02", dto.EffectiveDate)
		if err != nil {
			return ChangeOrder{}, err
		}
		co.EffectiveDate = date
	}
	for _, line := range dto.Lines {
		co.Lines = append(co.Lines, Line{
			ID:          line.ID,
			Key:         costkey.Normalize(line.ProjectID, line.SubJobID, line.CostCodeID, line.CostTypeID),
			Description: line.Description,
			Amount:      line.Amount,
		})
	}
	return co, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
