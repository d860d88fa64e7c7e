package commitment

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/costline/costline/internal/rest"
	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
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

type CommitmentDTO struct {
	ID                  int             `json:"id"`
	UID                 string          `json:"uid,omitempty"`
	ProjectID           int             `json:"projectId"`
	Number              string          `json:"number"`
	Title               string          `json:"title,omitempty"`
	VendorName          string          `json:"vendorName,omitempty"`
	ContractAmount      decimal.Decimal `json:"contractAmount"`
	RetentionPercentage decimal.Decimal `json:"retentionPercentage"`
	ExecutedDate        string          `json:"executedDate,omitempty"`
	Status              string          `json:"status"`
	Lines               []LineDTO       `json:"lines"`
}

type ChangeOrderDTO struct {
	ID           int       `json:"id"`
	UID          string    `json:"uid,omitempty"`
	CommitmentID int       `json:"commitmentId"`
	ProjectID    int       `json:"projectId"`
	Number       string    `json:"number"`
	Title        string    `json:"title,omitempty"`
	Status       string    `json:"status"`
	Lines        []LineDTO `json:"lines"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new commitment")
	w.Header().Set("Content-Type", "application/json")

	projectID, err := pathInt(r, "projectId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto CommitmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ProjectID = projectID

	created, err := h.service.Create(r.Context(), DTOToCommitment(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(CommitmentToDTO(created)); err != nil {
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

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(CommitmentToDTO(c)); err != nil {
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

	commitments, err := h.service.ListByProject(r.Context(), projectID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]CommitmentDTO, 0, len(commitments))
	for _, c := range commitments {
		dtos = append(dtos, CommitmentToDTO(c))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CreateChangeOrder(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new commitment change order")
	w.Header().Set("Content-Type", "application/json")

	commitmentID, err := pathInt(r, "commitmentId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto ChangeOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.CommitmentID = commitmentID

	created, err := h.service.CreateChangeOrder(r.Context(), DTOToChangeOrder(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ChangeOrderToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) ListChangeOrders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	commitmentID, err := pathInt(r, "commitmentId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	batches, err := h.service.ListChangeOrders(r.Context(), commitmentID)
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

func CommitmentToDTO(c Commitment) CommitmentDTO {
	dto := CommitmentDTO{
		ID:                  c.ID,
		UID:                 c.UID,
		ProjectID:           c.ProjectID,
		Number:              c.Number,
		Title:               c.Title,
		VendorName:          c.VendorName,
		ContractAmount:      c.ContractAmount,
		RetentionPercentage: c.RetentionPercentage,
		Status:              string(c.Status),
		Lines:               linesToDTO(c.Lines),
	}
	if c.ExecutedDate != nil {
		dto.ExecutedDate = c.ExecutedDate.Format("2006-01-02")
	}
	return dto
}

func DTOToCommitment(dto CommitmentDTO) Commitment {
	return Commitment{
		ID:                  dto.ID,
		UID:                 dto.UID,
		ProjectID:           dto.ProjectID,
		Number:              dto.Number,
		Title:               dto.Title,
		VendorName:          dto.VendorName,
		ContractAmount:      dto.ContractAmount,
		RetentionPercentage: dto.RetentionPercentage,
		Status:              ledger.State(dto.Status),
		Lines:               dtoToLines(dto.Lines, dto.ProjectID),
	}
}

func ChangeOrderToDTO(co ChangeOrder) ChangeOrderDTO {
	return ChangeOrderDTO{
		ID:           co.ID,
		UID:          co.UID,
		CommitmentID: co.CommitmentID,
		ProjectID:    co.ProjectID,
		Number:       co.Number,
		Title:        co.Title,
		Status:       string(co.Status),
		Lines:        linesToDTO(co.Lines),
	}
}

func DTOToChangeOrder(dto ChangeOrderDTO) ChangeOrder {
	return ChangeOrder{
		ID:           dto.ID,
		UID:          dto.UID,
		CommitmentID: dto.CommitmentID,
		ProjectID:    dto.ProjectID,
		Number:       dto.Number,
		Title:        dto.Title,
		Status:       ledger.State(dto.Status),
		Lines:        dtoToLines(dto.Lines, dto.ProjectID),
	}
}

func linesToDTO(lines []Line) []LineDTO {
	dtos := make([]LineDTO, 0, len(lines))
	for _, line := range lines {
		dtos = append(dtos, LineDTO{
			ID:          line.ID,
			ProjectID:   line.Key.ProjectID,
			SubJobID:    line.Key.SubJobID(),
			CostCodeID:  line.Key.CostCodeID,
			CostTypeID:  line.Key.CostTypeID,
			Description: line.Description,
			Amount:      line.Amount,
		})
	}
	return dtos
}

func dtoToLines(dtos []LineDTO, fallbackProjectID int) []Line {
	var lines []Line
	for _, dto := range dtos {
		projectID := dto.ProjectID
		if projectID == 0 {
			projectID = fallbackProjectID
		}
		lines = append(lines, Line{
			ID:          dto.ID,
			Key:         costkey.Normalize(projectID, dto.SubJobID, dto.CostCodeID, dto.CostTypeID),
			Description: dto.Description,
			Amount:      dto.Amount,
		})
	}
	return lines
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
