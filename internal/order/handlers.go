package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pedidos/internal/common"
	"github.com/noah-isme/backend-pedidos/internal/money"
	"github.com/noah-isme/backend-pedidos/internal/obs"
	"github.com/noah-isme/backend-pedidos/internal/pricing"
)

// Handler exposes the committed orders and the order builder over HTTP.
type Handler struct {
	Svc       *Service
	Validate  *validator.Validate
	Formatter *money.Formatter
}

type startRequest struct {
	FromDate string `json:"fromDate" validate:"required"`
	ToDate   string `json:"toDate" validate:"required"`
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       *int   `json:"qty" validate:"required"`
}

type commitRequest struct {
	Name string `json:"name"`
}

type builderResponse struct {
	Builder   Builder                `json:"builder"`
	Items     []pricing.ResolvedItem `json:"resolvedItems"`
	Totals    pricing.Totals         `json:"totals"`
	TotalLine string                 `json:"totalLine,omitempty"`
}

// OrderDTO is a committed order view plus its rendered total line.
type OrderDTO struct {
	View
	TotalLine string `json:"totalLine,omitempty"`
}

// List handles GET /api/v1/orders. It returns every committed order resolved
// against the current catalog plus the running settlement.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	views := h.Svc.Views()
	orders := make([]OrderDTO, 0, len(views))
	for _, v := range views {
		orders = append(orders, OrderDTO{View: v, TotalLine: h.totalLine(v.Totals, v.Resolved)})
	}
	settlement := h.Svc.Settlement()
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"orders":         orders,
		"ordersCount":    settlement.OrdersCount,
		"totals":         settlement.Totals,
		"providerTotals": settlement.ProviderTotals,
	}})
}

// Current handles GET /api/v1/orders/current.
func (h *Handler) Current(w http.ResponseWriter, _ *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.builderPayload()})
}

// Start handles POST /api/v1/orders/current/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var req startRequest
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
	if _, err := h.Svc.Start(req.FromDate, req.ToDate); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.builderPayload()})
}

// AddItem handles POST /api/v1/orders/current/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			obs.IncOrderItem("rejected")
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidLineItem, "productId and qty are required", map[string]any{"error": err.Error()})
			return
		}
	}
	qty := 0
	if req.Qty != nil {
		qty = *req.Qty
	}
	if _, err := h.Svc.AddItem(req.ProductID, qty); err != nil {
		obs.IncOrderItem("rejected")
		common.WriteError(w, err)
		return
	}
	obs.IncOrderItem("ok")
	common.JSON(w, http.StatusCreated, map[string]any{"data": h.builderPayload()})
}

// RemoveItem handles DELETE /api/v1/orders/current/items/{index}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		common.WriteError(w, common.Rejection(common.CodeInvalidLineItem, "item index must be an integer"))
		return
	}
	if _, err := h.Svc.RemoveItem(index); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.builderPayload()})
}

// Commit handles POST /api/v1/orders/current/commit.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	committed, err := h.Svc.Commit(r.Context(), req.Name)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	obs.IncOrderCommitted()
	resolved := pricing.Resolve(committed.Items, h.Svc.lookup())
	totals := pricing.Sum(resolved)
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
		"order":     committed,
		"totals":    totals,
		"totalLine": h.totalLine(totals, resolved),
	}})
}

func (h *Handler) builderPayload() builderResponse {
	resolved, totals := h.Svc.BuilderResolved()
	return builderResponse{
		Builder:   h.Svc.Current(),
		Items:     resolved,
		Totals:    totals,
		TotalLine: h.totalLine(totals, resolved),
	}
}

func (h *Handler) totalLine(totals pricing.Totals, resolved []pricing.ResolvedItem) string {
	if h.Formatter == nil {
		return ""
	}
	return h.Formatter.TotalLine(totals, pricing.SumByProvider(resolved))
}
