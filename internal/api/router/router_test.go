package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

type RouterTestSuite struct {
	suite.Suite
	db     *db.UnifiedDBImpl
	users  *service.UserService
	router *chi.Mux
	ctx    context.Context
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (suite *RouterTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = dbtest.NewUnifiedDB(suite.T())

	maker, err := token.NewJWTMaker("0123456789abcdef0123456789abcdef", "storefront-test")
	suite.Require().NoError(err)

	ledger := service.NewStockLedger(suite.db, nil, nil)
	statusMachine := service.NewOrderStatusMachine(suite.db, ledger, nil, nil)
	suite.users = service.NewUserService(suite.db, maker, service.TokenDurations{Access: time.Minute, Refresh: time.Hour}, nil)

	server := api.NewServer(
		handler.NewAuthHandler(suite.users),
		handler.NewProductHandler(service.NewProductService(suite.db, ledger, nil, nil)),
		handler.NewCartHandler(service.NewCartService(suite.db, nil)),
		handler.NewOrderHandler(service.NewOrderService(
			suite.db, ledger, statusMachine,
			service.StaticStoreSettings(model.DefaultStoreSettings()), nil, nil,
		)),
		handler.NewAdminHandler(service.NewAdminService(suite.db), statusMachine),
	)
	suite.router = SetupRouter(server, maker, nil, nil)
}

func (suite *RouterTestSuite) do(method, path, accessToken string, body any) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (suite *RouterTestSuite) login(email, password string) (string, int) {
	rec, env := suite.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		AccessToken struct {
			Value string `json:"value"`
		} `json:"access_token"`
		User struct {
			ID int `json:"id"`
		} `json:"user"`
	}
	suite.Require().NoError(json.Unmarshal(env.Data, &data))
	return data.AccessToken.Value, data.User.ID
}

func (suite *RouterTestSuite) signUpAndLogin(email string) (string, int) {
	rec, _ := suite.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":      email,
		"password":   "s3cret-pass",
		"first_name": "Jane",
		"last_name":  "Doe",
	})
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return suite.login(email, "s3cret-pass")
}

func (suite *RouterTestSuite) adminToken() string {
	_, err := suite.users.EnsureUser(suite.ctx, service.SignUpInput{
		Email:     "admin@example.com",
		Password:  "admin-pass",
		FirstName: "Store",
		LastName:  "Admin",
	}, model.UserRoleAdmin)
	suite.Require().NoError(err)
	tok, _ := suite.login("admin@example.com", "admin-pass")
	return tok
}

func placeOrderBody() map[string]any {
	return map[string]any{
		"shipping_address": map[string]string{
			"name":        "Jane Doe",
			"street":      "1 Main St",
			"city":        "Springfield",
			"postal_code": "62701",
			"country":     "US",
		},
		"payment_method": "card",
	}
}

func (suite *RouterTestSuite) TestHealthAndNotFound() {
	rec, _ := suite.do(http.MethodGet, "/healthz", "", nil)
	suite.Equal(http.StatusOK, rec.Code)

	rec, env := suite.do(http.MethodGet, "/api/v1/nothing", "", nil)
	suite.Equal(http.StatusNotFound, rec.Code)
	suite.Equal("NOT_FOUND", env.Code)
}

func (suite *RouterTestSuite) TestAuthRequired() {
	rec, env := suite.do(http.MethodGet, "/api/v1/cart", "", nil)
	suite.Equal(http.StatusUnauthorized, rec.Code)
	suite.Equal("UNAUTHENTICATED", env.Code)

	customer, _ := suite.signUpAndLogin("buyer@example.com")
	rec, env = suite.do(http.MethodGet, "/api/v1/admin/dashboard", customer, nil)
	suite.Equal(http.StatusForbidden, rec.Code)
	suite.Equal("PERMISSION_DENIED", env.Code)

	rec, _ = suite.do(http.MethodGet, "/api/v1/auth/me", customer, nil)
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *RouterTestSuite) TestCheckoutFlow() {
	product := dbtest.CreateProduct(suite.T(), suite.db, "SKU-1", "10.00", 5)
	customer, _ := suite.signUpAndLogin("buyer@example.com")

	rec, env := suite.do(http.MethodGet, "/api/v1/products?limit=5", "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var page model.Page[model.Product]
	suite.Require().NoError(json.Unmarshal(env.Data, &page))
	suite.Equal(int64(1), page.Total)

	rec, _ = suite.do(http.MethodPost, "/api/v1/cart/items", customer, map[string]any{
		"product_id": product.ProductID,
		"quantity":   2,
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec, env = suite.do(http.MethodPost, "/api/v1/orders", customer, placeOrderBody())
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var order model.Order
	suite.Require().NoError(json.Unmarshal(env.Data, &order))
	suite.Equal("31.59", order.TotalAmount.StringFixed(2))
	suite.Equal(model.OrderStatusPending, order.Status)

	rec, env = suite.do(http.MethodGet, "/api/v1/products/"+product.ProductID+"/availability", "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var availability service.Availability
	suite.Require().NoError(json.Unmarshal(env.Data, &availability))
	suite.Equal(3, availability.Available)

	// 管理員推進狀態
	admin := suite.adminToken()
	rec, _ = suite.do(http.MethodPut, "/api/v1/admin/orders/"+order.OrderID+"/status", admin, map[string]string{"status": "PROCESSING"})
	suite.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec, env = suite.do(http.MethodPut, "/api/v1/admin/orders/"+order.OrderID+"/status", admin, map[string]string{"status": "DELIVERED"})
	suite.Equal(http.StatusConflict, rec.Code)
	suite.Equal("INVALID_TRANSITION", env.Code)

	rec, env = suite.do(http.MethodPut, "/api/v1/admin/orders/"+order.OrderID+"/status", admin, map[string]string{"status": "LOST"})
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("INVALID_ARGUMENT", env.Code)

	// 客戶不能取消已處理中的訂單
	rec, env = suite.do(http.MethodPost, "/api/v1/orders/"+order.OrderID+"/cancel", customer, nil)
	suite.Equal(http.StatusConflict, rec.Code)
	suite.Equal("INVALID_TRANSITION", env.Code)
}

func (suite *RouterTestSuite) TestPlaceOrder_InsufficientStock() {
	product := dbtest.CreateProduct(suite.T(), suite.db, "SKU-2", "10.00", 3)
	customer, userID := suite.signUpAndLogin("buyer@example.com")

	// 加入購物車時會被擋下, 直接寫入模擬庫存在加入後被買走
	rec, env := suite.do(http.MethodPost, "/api/v1/cart/items", customer, map[string]any{
		"product_id": product.ProductID,
		"quantity":   10,
	})
	suite.Equal(http.StatusConflict, rec.Code)
	suite.Equal("INSUFFICIENT_STOCK", env.Code)

	suite.Require().NoError(suite.db.UpsertCartItem(suite.ctx, &model.CartItem{
		CartItemID: uuid.NewString(),
		UserID:     userID,
		ProductID:  product.ProductID,
		Quantity:   10,
	}))

	rec, env = suite.do(http.MethodPost, "/api/v1/orders", customer, placeOrderBody())
	suite.Require().Equal(http.StatusConflict, rec.Code, rec.Body.String())
	suite.Equal("INSUFFICIENT_STOCK", env.Code)

	var data service.InsufficientStockData
	suite.Require().NoError(json.Unmarshal(env.Data, &data))
	suite.Require().Len(data.Items, 1)
	suite.Equal("SKU-2", data.Items[0].SKU)
	suite.Equal(10, data.Items[0].Requested)
	suite.Equal(3, data.Items[0].Available)

	rec, env = suite.do(http.MethodGet, "/api/v1/cart", customer, nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var cart model.CartView
	suite.Require().NoError(json.Unmarshal(env.Data, &cart))
	suite.Equal(10, cart.ItemCount)
}

func (suite *RouterTestSuite) TestEmptyCartAndBadBody() {
	customer, _ := suite.signUpAndLogin("buyer@example.com")

	rec, env := suite.do(http.MethodPost, "/api/v1/orders", customer, placeOrderBody())
	suite.Equal(http.StatusUnprocessableEntity, rec.Code)
	suite.Equal("EMPTY_CART", env.Code)

	rec, env = suite.do(http.MethodPost, "/api/v1/orders", customer, nil)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("INVALID_ARGUMENT", env.Code)

	rec, env = suite.do(http.MethodGet, "/api/v1/orders?page=abc", customer, nil)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("INVALID_ARGUMENT", env.Code)
}

func (suite *RouterTestSuite) TestAdminProducts() {
	admin := suite.adminToken()

	rec, env := suite.do(http.MethodPost, "/api/v1/admin/products", admin, map[string]any{
		"sku":   "MUG-1",
		"name":  "Mug",
		"price": "12.50",
		"stock": 4,
	})
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var product model.Product
	suite.Require().NoError(json.Unmarshal(env.Data, &product))
	suite.True(product.Active)

	rec, env = suite.do(http.MethodPost, "/api/v1/admin/products", admin, map[string]any{
		"sku":   "MUG-1",
		"name":  "Mug again",
		"price": 12.5,
	})
	suite.Equal(http.StatusConflict, rec.Code)
	suite.Equal("DUPLICATE_SKU", env.Code)

	rec, env = suite.do(http.MethodPost, "/api/v1/admin/products/"+product.ProductID+"/restock", admin, map[string]int{"quantity": 6})
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Require().NoError(json.Unmarshal(env.Data, &product))
	suite.Equal(10, product.Stock)

	rec, env = suite.do(http.MethodGet, "/api/v1/products/search?q=mug", "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var page model.Page[model.Product]
	suite.Require().NoError(json.Unmarshal(env.Data, &page))
	suite.Equal(int64(1), page.Total)

	rec, _ = suite.do(http.MethodGet, "/api/v1/admin/reports/sales?start_date=2026-01-01&end_date=2026-12-31", admin, nil)
	suite.Equal(http.StatusOK, rec.Code)

	rec, env = suite.do(http.MethodGet, "/api/v1/admin/reports/sales?start_date=yesterday", admin, nil)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("INVALID_ARGUMENT", env.Code)
}

// 缺少或拼錯 quantity 時不能把購物車項目當成刪除
func (suite *RouterTestSuite) TestUpdateCartItem_RequiresQuantity() {
	product := dbtest.CreateProduct(suite.T(), suite.db, "SKU-Q", "10.00", 5)
	customer, _ := suite.signUpAndLogin("buyer@example.com")

	rec, env := suite.do(http.MethodPost, "/api/v1/cart/items", customer, map[string]any{
		"product_id": product.ProductID,
		"quantity":   2,
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var cart model.CartView
	suite.Require().NoError(json.Unmarshal(env.Data, &cart))
	suite.Require().Len(cart.Lines, 1)
	itemPath := "/api/v1/cart/items/" + cart.Lines[0].CartItemID

	rec, env = suite.do(http.MethodPut, itemPath, customer, map[string]int{"qty": 3})
	suite.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	suite.Equal("INVALID_ARGUMENT", env.Code)

	rec, env = suite.do(http.MethodPut, itemPath, customer, map[string]any{})
	suite.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	suite.Equal("INVALID_ARGUMENT", env.Code)

	rec, env = suite.do(http.MethodGet, "/api/v1/cart", customer, nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Require().NoError(json.Unmarshal(env.Data, &cart))
	suite.Equal(2, cart.ItemCount)

	rec, env = suite.do(http.MethodPut, itemPath, customer, map[string]int{"quantity": 3})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Require().NoError(json.Unmarshal(env.Data, &cart))
	suite.Equal(3, cart.ItemCount)

	// 明確給 0 才是刪除
	rec, env = suite.do(http.MethodPut, itemPath, customer, map[string]int{"quantity": 0})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Require().NoError(json.Unmarshal(env.Data, &cart))
	suite.Equal(0, cart.ItemCount)
}

func (suite *RouterTestSuite) TestUnknownBodyFieldRejected() {
	admin := suite.adminToken()
	rec, env := suite.do(http.MethodPost, "/api/v1/admin/products", admin, map[string]any{
		"sku":      "MUG-9",
		"name":     "Mug",
		"price":    "12.50",
		"quantity": 4,
	})
	suite.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	suite.Equal("INVALID_ARGUMENT", env.Code)
}

func (suite *RouterTestSuite) TestProductCategories() {
	admin := suite.adminToken()
	for _, body := range []map[string]any{
		{"sku": "MUG-1", "name": "Mug", "category": "kitchen", "price": "12.50", "stock": 1},
		{"sku": "CAP-1", "name": "Cap", "category": "apparel", "price": "8.00", "stock": 1},
		{"sku": "CAP-2", "name": "Cap", "category": "apparel", "price": "9.00", "stock": 1},
	} {
		rec, _ := suite.do(http.MethodPost, "/api/v1/admin/products", admin, body)
		suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, env := suite.do(http.MethodGet, "/api/v1/products/categories", "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var categories []db.CategoryCount
	suite.Require().NoError(json.Unmarshal(env.Data, &categories))
	suite.Equal([]db.CategoryCount{
		{Category: "apparel", ProductCount: 2},
		{Category: "kitchen", ProductCount: 1},
	}, categories)
}

func (suite *RouterTestSuite) TestAdminUserManagement() {
	admin := suite.adminToken()
	customer, customerID := suite.signUpAndLogin("jane@example.com")
	userPath := fmt.Sprintf("/api/v1/admin/users/%d", customerID)

	rec, _ := suite.do(http.MethodGet, "/api/v1/admin/users", customer, nil)
	suite.Equal(http.StatusForbidden, rec.Code)

	rec, env := suite.do(http.MethodGet, "/api/v1/admin/users?role=customer&search=jane", admin, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var page model.Page[model.User]
	suite.Require().NoError(json.Unmarshal(env.Data, &page))
	suite.Equal(int64(1), page.Total)
	suite.Require().Len(page.Data, 1)
	suite.Equal(customerID, page.Data[0].UserID)

	rec, env = suite.do(http.MethodGet, "/api/v1/admin/users/abc", admin, nil)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("INVALID_ARGUMENT", env.Code)

	rec, _ = suite.do(http.MethodPut, userPath+"/status", admin, map[string]any{})
	suite.Equal(http.StatusBadRequest, rec.Code)

	// 停用後不能登入
	rec, _ = suite.do(http.MethodPut, userPath+"/status", admin, map[string]any{"is_active": false})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	rec, env = suite.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "jane@example.com",
		"password": "s3cret-pass",
	})
	suite.Equal(http.StatusUnauthorized, rec.Code)
	suite.Equal("UNAUTHENTICATED", env.Code)

	rec, _ = suite.do(http.MethodPut, userPath+"/status", admin, map[string]any{"is_active": true})
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.login("jane@example.com", "s3cret-pass")

	rec, env = suite.do(http.MethodPost, userPath+"/promote", admin, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var user model.User
	suite.Require().NoError(json.Unmarshal(env.Data, &user))
	suite.Equal(model.UserRoleAdmin, user.Role)

	rec, env = suite.do(http.MethodPost, userPath+"/promote", admin, nil)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("INVALID_ARGUMENT", env.Code)

	rec, env = suite.do(http.MethodPut, userPath+"/role", admin, map[string]string{"role": "CUSTOMER"})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Require().NoError(json.Unmarshal(env.Data, &user))
	suite.Equal(model.UserRoleCustomer, user.Role)

	rec, _ = suite.do(http.MethodGet, "/api/v1/admin/users/999999", admin, nil)
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *RouterTestSuite) TestProductPerformanceReport() {
	admin := suite.adminToken()
	rec, env := suite.do(http.MethodGet, "/api/v1/admin/reports/products", admin, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var sales []db.ProductSales
	suite.Require().NoError(json.Unmarshal(env.Data, &sales))
	suite.Empty(sales)
}

func (suite *RouterTestSuite) TestSwaggerDoc() {
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	suite.Require().Equal(http.StatusOK, rec.Code)

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &doc))
	suite.Equal("/api/v1", doc.BasePath)
	suite.Contains(doc.Paths, "/orders")
	suite.Contains(doc.Paths, "/admin/users/{id}/status")
	suite.Contains(doc.Paths, "/products/categories")

	rec = httptest.NewRecorder()
	suite.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger", nil))
	suite.Equal(http.StatusMovedPermanently, rec.Code)
}
