package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cartService service.ICartService
}

func NewCartHandler(cartService service.ICartService) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	return &CartHandler{cartService: cartService}
}

// GetCart GET /cart
// @Summary get cart
// @Tags cart
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} response.Response{data=model.CartView} "success"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /cart [get]
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	cart, err := h.cartService.GetCart(r.Context(), payload.UserID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, cart)
}

// AddItem POST /cart/items
// @Summary add product to cart
// @Tags cart
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param item body dto.AddCartItemDTO true "cart item"
// @Success 200 {object} response.Response{data=model.CartView} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 409 {object} response.ResponseError "INSUFFICIENT_STOCK"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /cart/items [post]
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.AddCartItemDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	cart, err := h.cartService.AddLine(r.Context(), payload.UserID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, cart)
}

// UpdateItem PUT /cart/items/{id}
// @Summary update cart line quantity, quantity <= 0 removes the line
// @Tags cart
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "cart item id"
// @Param item body dto.UpdateCartItemDTO true "quantity"
// @Success 200 {object} response.Response{data=model.CartView} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 409 {object} response.ResponseError "INSUFFICIENT_STOCK"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /cart/items/{id} [put]
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.UpdateCartItemDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	if req.Quantity == nil {
		response.ErrorJSON(w, r, errs.New(errs.InvalidArgumentCode, "quantity is required"))
		return
	}

	cart, err := h.cartService.UpdateLine(r.Context(), payload.UserID, chi.URLParam(r, "id"), *req.Quantity)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, cart)
}

// RemoveItem DELETE /cart/items/{id}
// @Summary remove cart line
// @Tags cart
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "cart item id"
// @Success 200 {object} response.Response{data=model.CartView} "success"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	cart, err := h.cartService.RemoveLine(r.Context(), payload.UserID, chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, cart)
}

// Clear DELETE /cart
// @Summary clear cart
// @Tags cart
// @Produce json
// @Security ApiKeyAuth
// @Success 204 "no content"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /cart [delete]
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	if err := h.cartService.Clear(r.Context(), payload.UserID); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.NoContent(w)
}
