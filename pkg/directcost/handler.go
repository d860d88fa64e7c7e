package directcost

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/costline/costline/internal/rest"
	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type DirectCostDTO struct {
	ID            int             `json:"id"`
	UID           string          `json:"uid,omitempty"`
	ProjectID     int             `json:"projectId"`
	SubJobID      *int            `json:"subJobId,omitempty"`
	CostCodeID    int             `json:"costCodeId"`
	CostTypeID    int             `json:"costTypeId"`
	VendorName    string          `json:"vendorName"`
	Description   string          `json:"description,omitempty"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
	InvoiceDate   string          `json:"invoiceDate"`
	ReceivedDate  string          `json:"receivedDate,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new direct cost")
	w.Header().Set("Content-Type", "application/json")

	projectID, err := pathInt(r, "projectId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto DirectCostDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ProjectID = projectID

	dc, err := DTOToDirectCost(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), dc)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(DirectCostToDTO(created)); err != nil {
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

	dc, err := h.service.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(DirectCostToDTO(dc)); err != nil {
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

	costs, err := h.service.ListByProject(r.Context(), projectID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]DirectCostDTO, 0, len(costs))
	for _, dc := range costs {
		dtos = append(dtos, DirectCostToDTO(dc))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func DirectCostToDTO(dc DirectCost) DirectCostDTO {
	dto := DirectCostDTO{
		ID:            dc.ID,
		UID:           dc.UID,
		ProjectID:     dc.Key.ProjectID,
		SubJobID:      dc.Key.SubJobID(),
		CostCodeID:    dc.Key.CostCodeID,
		CostTypeID:    dc.Key.CostTypeID,
		VendorName:    dc.VendorName,
		Description:   dc.Description,
		InvoiceNumber: dc.InvoiceNumber,
		Amount:        dc.Amount,
		Status:        string(dc.Status),
	}
	if !dc.InvoiceDate.IsZero() {
		dto.InvoiceDate = dc.InvoiceDate.Format("2006-01-02")
	}
	if dc.ReceivedDate != nil {
		dto.ReceivedDate = dc.ReceivedDate.Format("2006-01-02")
	}
	return dto
}

func DTOToDirectCost(dto DirectCostDTO) (DirectCost, error) {
	dc := DirectCost{
		ID:            dto.ID,
		UID:           dto.UID,
		Key:           costkey.Normalize(dto.ProjectID, dto.SubJobID, dto.CostCodeID, dto.CostTypeID),
		VendorName:    dto.VendorName,
		Description:   dto.Description,
		InvoiceNumber: dto.InvoiceNumber,
		Amount:        dto.Amount,
		Status:        ledger.State(dto.Status),
	}
	if dto.InvoiceDate != "" {
		date, err := time.Parse("2006-01-02", dto.InvoiceDate)
		if err != nil {
			return DirectCost{}, err
		}
		dc.InvoiceDate = date
	}
	if dto.ReceivedDate != "" {
		date, err := time.Parse("2006-01-02", dto.ReceivedDate)
		if err != nil {
			return DirectCost{}, err
		}
		dc.ReceivedDate = &date
	}
	return dc, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
