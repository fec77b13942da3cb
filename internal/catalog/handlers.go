package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pedidos/internal/common"
	"github.com/noah-isme/backend-pedidos/internal/obs"
)

// Handler exposes the product catalog over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// ProductDTO is a product plus its derived sale price.
type ProductDTO struct {
	Product
	SalePrice int64 `json:"salePrice"`
}

func toDTO(p Product) ProductDTO {
	return ProductDTO{Product: p, SalePrice: p.SalePrice()}
}

type upsertRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Provider string `json:"provider" validate:"required"`
	Cost     *int64 `json:"cost" validate:"required,gte=0"`
	Gaston   *int64 `json:"gaston" validate:"required,gte=0"`
	Maria    *int64 `json:"maria" validate:"required,gte=0"`
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	products := h.Svc.List()
	data := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		data = append(data, toDTO(p))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": data})
}

// Get handles GET /api/v1/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	p, ok := h.Svc.FindByID(id)
	if !ok {
		common.WriteError(w, common.NotFound("product not found"))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toDTO(p)})
}

// Upsert handles POST /api/v1/products. An empty id creates; a known id
// replaces in place.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			obs.IncProductMutation("upsert", "rejected")
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidProduct, "invalid product payload", map[string]any{"error": err.Error()})
			return
		}
	}
	product := Product{
		ID:       req.ID,
		Name:     req.Name,
		Provider: req.Provider,
	}
	if req.Cost != nil {
		product.Cost = *req.Cost
	}
	if req.Gaston != nil {
		product.FeeGaston = *req.Gaston
	}
	if req.Maria != nil {
		product.FeeMaria = *req.Maria
	}
	created := req.ID == ""
	saved, err := h.Svc.Upsert(r.Context(), product)
	if err != nil {
		obs.IncProductMutation("upsert", "rejected")
		common.WriteError(w, err)
		return
	}
	obs.IncProductMutation("upsert", "ok")
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	common.JSON(w, status, map[string]any{"data": toDTO(saved)})
}

// Delete handles DELETE /api/v1/products/{id}. The request itself is the
// operator's confirmation; removal cascades into the builder and orders.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Svc.Remove(r.Context(), id); err != nil {
		obs.IncProductMutation("delete", "rejected")
		common.WriteError(w, err)
		return
	}
	obs.IncProductMutation("delete", "ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
}
