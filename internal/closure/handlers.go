package closure

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pedidos/internal/common"
	"github.com/noah-isme/backend-pedidos/internal/money"
	"github.com/noah-isme/backend-pedidos/internal/obs"
)

// Handler exposes the closure history over HTTP.
type Handler struct {
	Svc            *Service
	Validate       *validator.Validate
	Formatter      *money.Formatter
	DefaultPerPage int
}

type createRequest struct {
	FromDate string `json:"fromDate" validate:"required"`
	ToDate   string `json:"toDate" validate:"required"`
}

// ClosureDTO is a closure plus its operator-facing rendering.
type ClosureDTO struct {
	Closure
	Period  string                `json:"period,omitempty"`
	Display []string              `json:"display,omitempty"`
	Sorted  []money.ProviderTotal `json:"providerTotalsSorted,omitempty"`
}

func (h *Handler) toDTO(c Closure) ClosureDTO {
	dto := ClosureDTO{Closure: c}
	if h.Formatter != nil {
		dto.Period = h.Formatter.FormatDate(c.FromDate) + " - " + h.Formatter.FormatDate(c.ToDate)
		dto.Display = h.Formatter.SettlementLines(c.Totals, c.ProviderTotals)
		dto.Sorted = h.Formatter.SortedProviderTotals(c.ProviderTotals)
	}
	return dto
}

// List handles GET /api/v1/closures, most recent first, paginated.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "closure service not configured", nil)
		return
	}
	perPage := h.DefaultPerPage
	if perPage <= 0 {
		perPage = 20
	}
	page, perPage := common.ParsePagination(r, perPage)
	history := h.Svc.History()

	start := (page - 1) * perPage
	if start > len(history) {
		start = len(history)
	}
	end := start + perPage
	if end > len(history) {
		end = len(history)
	}

	data := make([]ClosureDTO, 0, end-start)
	for _, c := range history[start:end] {
		data = append(data, h.toDTO(c))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": data,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: len(history),
		},
	})
}

// Create handles POST /api/v1/closures.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "closure service not configured", nil)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidDateRange, "fromDate and toDate are required", map[string]any{"error": err.Error()})
			return
		}
	}
	created, err := h.Svc.Create(r.Context(), req.FromDate, req.ToDate)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	obs.IncClosureCreated()
	common.JSON(w, http.StatusCreated, map[string]any{"data": h.toDTO(created)})
}
