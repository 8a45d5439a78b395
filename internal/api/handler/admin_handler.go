package handler

import (
	"fmt"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	adminService  service.IAdminService
	statusMachine service.IOrderStatusMachine
}

func NewAdminHandler(adminService service.IAdminService, statusMachine service.IOrderStatusMachine) *AdminHandler {
	if adminService == nil || statusMachine == nil {
		panic("adminService and statusMachine cannot be nil")
	}
	return &AdminHandler{
		adminService:  adminService,
		statusMachine: statusMachine,
	}
}

// Dashboard GET /admin/dashboard
// @Summary dashboard stats
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} response.Response{data=service.DashboardStats} "success"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, stats)
}

// SalesReport GET /admin/reports/sales?start_date=&end_date=
// @Summary sales report of delivered orders
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param start_date query string false "YYYY-MM-DD or RFC3339"
// @Param end_date query string false "YYYY-MM-DD or RFC3339"
// @Success 200 {object} response.Response{data=service.SalesReport} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/reports/sales [get]
func (h *AdminHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "start_date", false)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	end, err := queryDate(r, "end_date", true)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	report, err := h.adminService.SalesReport(r.Context(), start, end)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, report)
}

// ListOrders GET /admin/orders?status=&page=&limit=
// @Summary list all orders
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "order status"
// @Param page query int false "page, 從 1 開始"
// @Param limit query int false "page size, 預設 20, 上限 100"
// @Success 200 {object} response.Response{data=model.Page[model.Order]} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/orders [get]
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit, err := paging(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	orders, err := h.adminService.ListOrders(r.Context(), r.URL.Query().Get("status"), page, limit)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus PUT /admin/orders/{id}/status
// @Summary transition order status
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "order id"
// @Param status body dto.UpdateOrderStatusDTO true "target status"
// @Success 200 {object} response.Response{data=model.Order} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 409 {object} response.ResponseError "INVALID_TRANSITION"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/orders/{id}/status [put]
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.UpdateOrderStatusDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	order, err := h.statusMachine.Transition(
		r.Context(),
		chi.URLParam(r, "id"),
		model.OrderStatus(req.Status),
		fmt.Sprintf("admin:%d", payload.UserID),
		req.Note,
	)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, order)
}

// ProductPerformance GET /admin/reports/products
// @Summary top selling products
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} response.Response{data=[]db.ProductSales} "success"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/reports/products [get]
func (h *AdminHandler) ProductPerformance(w http.ResponseWriter, r *http.Request) {
	sales, err := h.adminService.ProductPerformance(r.Context())
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, sales)
}

// ListUsers GET /admin/users?role=&search=&page=&limit=
// @Summary list users
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param role query string false "CUSTOMER or ADMIN"
// @Param search query string false "email or name"
// @Param page query int false "page, 從 1 開始"
// @Param limit query int false "page size, 預設 20, 上限 100"
// @Success 200 {object} response.Response{data=model.Page[model.User]} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, err := paging(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	users, err := h.adminService.ListUsers(r.Context(), service.UserQuery{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, users)
}

// GetUser GET /admin/users/{id}
// @Summary get user
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "user id"
// @Success 200 {object} response.Response{data=model.User} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	user, err := h.adminService.GetUser(r.Context(), userID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, user)
}

// UpdateUserStatus PUT /admin/users/{id}/status
// @Summary activate or deactivate user
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "user id"
// @Param status body dto.UpdateUserStatusDTO true "is_active"
// @Success 200 {object} response.Response{data=model.User} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/users/{id}/status [put]
func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	userID, err := pathInt(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.UpdateUserStatusDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	if req.IsActive == nil {
		response.ErrorJSON(w, r, errs.New(errs.InvalidArgumentCode, "is_active is required"))
		return
	}

	user, err := h.adminService.SetUserActive(r.Context(), payload.UserID, userID, *req.IsActive)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, user)
}

// UpdateUserRole PUT /admin/users/{id}/role
// @Summary set user role
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "user id"
// @Param role body dto.UpdateUserRoleDTO true "role"
// @Success 200 {object} response.Response{data=model.User} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/users/{id}/role [put]
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	userID, err := pathInt(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.UpdateUserRoleDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	user, err := h.adminService.SetUserRole(r.Context(), payload.UserID, userID, req.Role)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, user)
}

// PromoteUser POST /admin/users/{id}/promote
// @Summary promote user to admin
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "user id"
// @Success 200 {object} response.Response{data=model.User} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/users/{id}/promote [post]
func (h *AdminHandler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	user, err := h.adminService.PromoteToAdmin(r.Context(), userID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, user)
}
