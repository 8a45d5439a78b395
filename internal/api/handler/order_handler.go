package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orderService service.IOrderService
}

func NewOrderHandler(orderService service.IOrderService) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &OrderHandler{orderService: orderService}
}

// PlaceOrder POST /orders
// 庫存不足時回傳 409, data.items 列出每個不足的商品
// @Summary place order from cart
// @Tags orders
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param order body dto.PlaceOrderDTO true "shipping address and payment method"
// @Success 201 {object} response.Response{data=model.Order} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 409 {object} response.ResponseError{data=service.InsufficientStockData} "INSUFFICIENT_STOCK"
// @Failure 422 {object} response.ResponseError "EMPTY_CART"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /orders [post]
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.PlaceOrderDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), payload.UserID, req.ToInput())
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, order)
}

// ListMyOrders GET /orders?page=&limit=
// @Summary list my orders
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "page, 從 1 開始"
// @Param limit query int false "page size, 預設 20, 上限 100"
// @Success 200 {object} response.Response{data=model.Page[model.Order]} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /orders [get]
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	page, limit, err := paging(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	orders, err := h.orderService.ListMyOrders(r.Context(), payload.UserID, page, limit)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, orders)
}

// GetOrder GET /orders/{id}, 只有訂單擁有者或管理員可以查看
// @Summary get order
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "order id"
// @Success 200 {object} response.Response{data=model.Order} "success"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), service.Requester{
		UserID:  payload.UserID,
		IsAdmin: middleware.IsAdmin(payload),
	}, chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, order)
}

// CancelOrder POST /orders/{id}/cancel
// @Summary cancel my pending order
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "order id"
// @Success 200 {object} response.Response{data=model.Order} "success"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 409 {object} response.ResponseError "INVALID_TRANSITION"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	order, err := h.orderService.CancelOwnOrder(r.Context(), payload.UserID, chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, order)
}
