package forecast

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/costline/costline/internal/rest"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type CurveDTO struct {
	ID          int             `json:"id"`
	CompanyID   int             `json:"companyId"`
	Name        string          `json:"name"`
	CurveType   string          `json:"curveType"`
	CurveConfig json.RawMessage `json:"curveConfig,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new forecasting curve")
	w.Header().Set("Content-Type", "application/json")

	var dto CurveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateCurve(r.Context(), DTOToCurve(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(CurveToDTO(created)); err != nil {
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

	c, err := h.service.GetCurve(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(CurveToDTO(c)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	companyID, err := strconv.Atoi(r.URL.Query().Get("companyId"))
	if err != nil {
		http.Error(w, "companyId is required", http.StatusBadRequest)
		return
	}

	curves, err := h.service.ListCurves(r.Context(), companyID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	dtos := make([]CurveDTO, 0, len(curves))
	for _, c := range curves {
		dtos = append(dtos, CurveToDTO(c))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := pathInt(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto CurveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.ID = id

	updated, err := h.service.UpdateCurve(r.Context(), DTOToCurve(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(CurveToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteCurve(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func CurveToDTO(c Curve) CurveDTO {
	return CurveDTO{
		ID:          c.ID,
		CompanyID:   c.CompanyID,
		Name:        c.Name,
		CurveType:   string(c.CurveType),
		CurveConfig: c.CurveConfig,
	}
}

func DTOToCurve(dto CurveDTO) Curve {
	return Curve{
		ID:          dto.ID,
		CompanyID:   dto.CompanyID,
		Name:        dto.Name,
		CurveType:   CurveType(dto.CurveType),
		CurveConfig: dto.CurveConfig,
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
