package handler

import (
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	productService service.IProductService
}

func NewProductHandler(productService service.IProductService) *ProductHandler {
	if productService == nil {
		panic("productService cannot be nil")
	}
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) productQuery(r *http.Request) (service.ProductQuery, error) {
	page, limit, err := paging(r)
	if err != nil {
		return service.ProductQuery{}, err
	}
	featured, err := queryBool(r, "featured")
	if err != nil {
		return service.ProductQuery{}, err
	}
	includeInactive, err := queryBool(r, "include_inactive")
	if err != nil {
		return service.ProductQuery{}, err
	}

	return service.ProductQuery{
		Page:     page,
		Limit:    limit,
		Category: r.URL.Query().Get("category"),
		Featured: featured,
		// 只有管理員可以看到下架商品
		IncludeInactive: includeInactive != nil && *includeInactive && middleware.IsAdmin(middleware.PayloadFromContext(r.Context())),
	}, nil
}

// ListCategories GET /products/categories
// @Summary list categories of active products
// @Tags products
// @Produce json
// @Success 200 {object} response.Response{data=[]db.CategoryCount} "success"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /products/categories [get]
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.ListCategories(r.Context())
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, categories)
}

// ListProducts GET /products?page=&limit=&featured=&category=
// @Summary list products
// @Tags products
// @Produce json
// @Param page query int false "page, 從 1 開始"
// @Param limit query int false "page size, 預設 20, 上限 100"
// @Param featured query bool false "featured only"
// @Param category query string false "category"
// @Success 200 {object} response.Response{data=model.Page[model.Product]} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /products [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query, err := h.productQuery(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	page, err := h.productService.ListProducts(r.Context(), query)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, page)
}

// SearchProducts GET /products/search?q=
// @Summary search products by name, description or sku
// @Tags products
// @Produce json
// @Param q query string true "keyword"
// @Param page query int false "page, 從 1 開始"
// @Param limit query int false "page size, 預設 20, 上限 100"
// @Success 200 {object} response.Response{data=model.Page[model.Product]} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /products/search [get]
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.ErrorJSON(w, r, errs.New(errs.InvalidArgumentCode, "search query is required"))
		return
	}
	query, err := h.productQuery(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	query.Search = q

	page, err := h.productService.ListProducts(r.Context(), query)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, page)
}

// GetProduct GET /products/{id}
// @Summary get product
// @Tags products
// @Produce json
// @Param id path string true "product id"
// @Success 200 {object} response.Response{data=model.Product} "success"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	isAdmin := middleware.IsAdmin(middleware.PayloadFromContext(r.Context()))
	product, err := h.productService.GetProduct(r.Context(), chi.URLParam(r, "id"), isAdmin)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, product)
}

// GetAvailability GET /products/{id}/availability
// @Summary get live stock
// @Tags products
// @Produce json
// @Param id path string true "product id"
// @Success 200 {object} response.Response{data=service.Availability} "success"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /products/{id}/availability [get]
func (h *ProductHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	availability, err := h.productService.GetAvailability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, availability)
}

// CreateProduct POST /admin/products
// @Summary create product
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param product body dto.CreateProductDTO true "product"
// @Success 201 {object} response.Response{data=model.Product} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 409 {object} response.ResponseError "DUPLICATE_SKU"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), req.ToInput())
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, product)
}

// UpdateProduct PUT /admin/products/{id}
// @Summary update product, stock excluded
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "product id"
// @Param product body dto.UpdateProductDTO true "fields to change"
// @Success 200 {object} response.Response{data=model.Product} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 409 {object} response.ResponseError "DUPLICATE_SKU"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/products/{id} [put]
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProductDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.ToInput())
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, product)
}

// Restock POST /admin/products/{id}/restock
// @Summary restock product
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "product id"
// @Param restock body dto.RestockDTO true "quantity"
// @Success 200 {object} response.Response{data=model.Product} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 403 {object} response.ResponseError "PERMISSION_DENIED"
// @Failure 404 {object} response.ResponseError "NOT_FOUND"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /admin/products/{id}/restock [post]
func (h *ProductHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req dto.RestockDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	product, err := h.productService.Restock(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, product)
}
