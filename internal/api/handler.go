package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/catalog"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/engine"
	"github.com/go-chi/chi/v5"
)

// CartHandler exposes every engine operation over HTTP.
type CartHandler struct {
	engine *engine.Engine
}

func NewCartHandler(e *engine.Engine) *CartHandler {
	return &CartHandler{engine: e}
}

// Routes mounts the cart API on a router.
func (h *CartHandler) Routes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items", h.SwapCart)
		r.Put("/items/{package_id}", h.UpdateQuantity)
		r.Delete("/items/{package_id}", h.RemoveItem)
		r.Post("/swap", h.SwapPackage)
		r.Post("/coupons", h.ApplyCoupon)
		r.Delete("/coupons/{code}", h.RemoveCoupon)
		r.Put("/shipping-method", h.SetShippingMethod)
		r.Post("/refresh", h.RefreshPrices)
	})
}

type SwapPackageRequestDTO struct {
	RemovePackageID int                   `json:"remove_package_id"`
	Add             engine.AddItemRequest `json:"add"`
}

type SwapCartRequestDTO struct {
	Items []engine.AddItemRequest `json:"items"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

type SetShippingMethodRequestDTO struct {
	MethodID int `json:"method_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.GetState())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req engine.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.PackageID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_package_id", "package_id must be positive")
		return
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	item, err := h.engine.AddItem(r.Context(), req)
	if err != nil {
		handleEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	packageID, ok := packageIDParam(w, r)
	if !ok {
		return
	}
	if err := h.engine.RemoveItem(r.Context(), packageID); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.GetState())
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	packageID, ok := packageIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be 99 or less")
		return
	}

	if err := h.engine.UpdateQuantity(r.Context(), packageID, req.Quantity); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.GetState())
}

func (h *CartHandler) SwapPackage(w http.ResponseWriter, r *http.Request) {
	var req SwapPackageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.RemovePackageID <= 0 || req.Add.PackageID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_package_id", "package ids must be positive")
		return
	}

	item, err := h.engine.SwapPackage(r.Context(), req.RemovePackageID, req.Add)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *CartHandler) SwapCart(w http.ResponseWriter, r *http.Request) {
	var req SwapCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.engine.SwapCart(r.Context(), req.Items); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.GetState())
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result := h.engine.ApplyCoupon(r.Context(), req.Code)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, result)
}

func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	h.engine.RemoveCoupon(r.Context(), code)
	respondJSON(w, http.StatusOK, h.engine.GetState())
}

func (h *CartHandler) SetShippingMethod(w http.ResponseWriter, r *http.Request) {
	var req SetShippingMethodRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.engine.SetShippingMethod(r.Context(), req.MethodID); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.GetState())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.engine.Clear(r.Context())
	respondJSON(w, http.StatusOK, h.engine.GetState())
}

func (h *CartHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.RefreshItemPrices(r.Context()); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.GetState())
}

func packageIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	packageID, err := strconv.Atoi(chi.URLParam(r, "package_id"))
	if err != nil || packageID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_package_id", "package_id must be a positive integer")
		return 0, false
	}
	return packageID, true
}

func handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrPackageNotFound):
		respondError(w, http.StatusNotFound, "package_not_found", err.Error())
	case errors.Is(err, catalog.ErrShippingMethodNotFound):
		respondError(w, http.StatusNotFound, "shipping_method_not_found", err.Error())
	case errors.Is(err, engine.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: details,
	})
}
