package contract

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/costline/costline/internal/rest"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ContractDTO struct {
	ID         int    `json:"id"`
	UID        string `json:"uid"`
	ProjectID  int    `json:"projectId"`
	Number     string `json:"number"`
	Title      string `json:"title"`
	ClientName string `json:"clientName"`
	StartDate  string `json:"startDate,omitempty"`
}

type SOVLineDTO struct {
	ID          int             `json:"id"`
	ContractID  int             `json:"contractId"`
	ItemNumber  string          `json:"itemNumber"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type InvoiceDTO struct {
	ID          int             `json:"id"`
	ContractID  int             `json:"contractId"`
	Number      string          `json:"number"`
	Amount      decimal.Decimal `json:"amount"`
	Approved    bool            `json:"approved"`
	InvoiceDate string          `json:"invoiceDate"`
}

type PaymentDTO struct {
	ID         int             `json:"id"`
	ContractID int             `json:"contractId"`
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	ReceivedAt string          `json:"receivedAt"`
}

type SummaryDTO struct {
	ContractID             int             `json:"contractId"`
	OriginalContractAmount decimal.Decimal `json:"originalContractAmount"`
	ApprovedChangeOrders   decimal.Decimal `json:"approvedChangeOrders"`
	RevisedContractAmount  decimal.Decimal `json:"revisedContractAmount"`
	PendingChangeOrders    decimal.Decimal `json:"pendingChangeOrders"`
	DraftChangeOrders      decimal.Decimal `json:"draftChangeOrders"`
	InvoicedAmount         decimal.Decimal `json:"invoicedAmount"`
	PaymentsReceived       decimal.Decimal `json:"paymentsReceived"`
	PercentPaid            decimal.Decimal `json:"percentPaid"`
	RemainingBalance       decimal.Decimal `json:"remainingBalance"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new contract")
	w.Header().Set("Content-Type", "application/json")

	var dto ContractDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contract, err := DTOToContract(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), contract)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ContractToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contract, err := h.service.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ContractToDTO(contract)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) ListByProject(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	projectID, err := pathInt(r, "projectId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contracts, err := h.service.ListByProject(r.Context(), projectID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]ContractDTO, 0, len(contracts))
	for _, c := range contracts {
		dtos = append(dtos, ContractToDTO(c))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) AddSOVLine(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	contractID, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto SOVLineDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ContractID = contractID

	created, err := h.service.AddSOVLine(r.Context(), SOVLine{
		ContractID:  dto.ContractID,
		ItemNumber:  dto.ItemNumber,
		Description: dto.Description,
		Amount:      dto.Amount,
	})
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(SOVLineToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) ListSOVLines(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	contractID, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lines, err := h.service.ListSOVLines(r.Context(), contractID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]SOVLineDTO, 0, len(lines))
	for _, line := range lines {
		dtos = append(dtos, SOVLineToDTO(line))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) AddInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	contractID, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto InvoiceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ContractID = contractID

	invoice, err := DTOToInvoice(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.AddInvoice(r.Context(), invoice)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(InvoiceToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) ApproveInvoice(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	invoiceID, err := pathInt(r, "invoiceId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.ApproveInvoice(r.Context(), contractID, invoiceID); err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	contractID, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	invoices, err := h.service.ListInvoices(r.Context(), contractID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]InvoiceDTO, 0, len(invoices))
	for _, inv := range invoices {
		dtos = append(dtos, InvoiceToDTO(inv))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	contractID, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto PaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ContractID = contractID

	payment, err := DTOToPayment(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.AddPayment(r.Context(), payment)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(PaymentToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	contractID, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payments, err := h.service.ListPayments(r.Context(), contractID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, PaymentToDTO(p))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	contractID, err := pathInt(r, "contractId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.service.GetSummary(r.Context(), contractID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(SummaryToDTO(summary)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ContractToDTO(c Contract) ContractDTO {
	dto := ContractDTO{
		ID:         c.ID,
		UID:        c.UID,
		ProjectID:  c.ProjectID,
		Number:     c.Number,
		Title:      c.Title,
		ClientName: c.ClientName,
	}
	if c.StartDate != nil {
		dto.StartDate = c.StartDate.Format("2006-01-02")
	}
	return dto
}

func DTOToContract(dto ContractDTO) (Contract, error) {
	c := Contract{
		ID:         dto.ID,
		UID:        dto.UID,
		ProjectID:  dto.ProjectID,
		Number:     dto.Number,
		Title:      dto.Title,
		ClientName: dto.ClientName,
	}
	if dto.StartDate != "" {
		date, err := time.Parse("2006-01-02", dto.StartDate)
		if err != nil {
			return Contract{}, err
		}
		c.StartDate = &date
	}
	return c, nil
}

func SOVLineToDTO(line SOVLine) SOVLineDTO {
	return SOVLineDTO{
		ID:          line.ID,
		ContractID:  line.ContractID,
		ItemNumber:  line.ItemNumber,
		Description: line.Description,
		Amount:      line.Amount,
	}
}

func InvoiceToDTO(inv Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:         inv.ID,
		ContractID: inv.ContractID,
		Number:     inv.Number,
		Amount:     inv.Amount,
		Approved:   inv.Approved,
	}
	if !inv.InvoiceDate.IsZero() {
		dto.InvoiceDate = inv.InvoiceDate.Format("2006-01-02")
	}
	return dto
}

func DTOToInvoice(dto InvoiceDTO) (Invoice, error) {
	inv := Invoice{
		ID:         dto.ID,
		ContractID: dto.ContractID,
		Number:     dto.Number,
		Amount:     dto.Amount,
		Approved:   dto.Approved,
	}
	if dto.InvoiceDate != "" {
		date, err := time.Parse("2006-01-02", dto.InvoiceDate)
		if err != nil {
			return Invoice{}, err
		}
		inv.InvoiceDate = date
	}
	return inv, nil
}

func PaymentToDTO(p Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:         p.ID,
		ContractID: p.ContractID,
		Reference:  p.Reference,
		Amount:     p.Amount,
	}
	if !p.ReceivedAt.IsZero() {
		dto.ReceivedAt = p.ReceivedAt.Format("2006-01-02")
	}
	return dto
}

func DTOToPayment(dto PaymentDTO) (Payment, error) {
	p := Payment{
		ID:         dto.ID,
		ContractID: dto.ContractID,
		Reference:  dto.Reference,
		Amount:     dto.Amount,
	}
	if dto.ReceivedAt != "" {
		date, err := time.Parse("2006-01-02", dto.ReceivedAt)
		if err != nil {
			return Payment{}, err
		}
		p.ReceivedAt = date
	}
	return p, nil
}

func SummaryToDTO(s Summary) SummaryDTO {
	return SummaryDTO{
		ContractID:             s.ContractID,
		OriginalContractAmount: s.OriginalContractAmount,
		ApprovedChangeOrders:   s.ApprovedChangeOrders,
		RevisedContractAmount:  s.RevisedContractAmount,
		PendingChangeOrders:    s.PendingChangeOrders,
		DraftChangeOrders:      s.DraftChangeOrders,
		InvoicedAmount:         s.InvoicedAmount,
		PaymentsReceived:       s.PaymentsReceived,
		PercentPaid:            s.PercentPaid,
		RemainingBalance:       s.RemainingBalance,
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
