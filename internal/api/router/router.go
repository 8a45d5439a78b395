package router

import (
	"net/http"

	_ "github.com/RoyceAzure/lab/storefront/docs"
	"github.com/RoyceAzure/lab/storefront/internal/api"
	m "github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var errRouteNotFound = errs.New(errs.NotFoundCode, "route not found")

// SetupRouter limiter 為 nil 時不限流
func SetupRouter(server *api.Server, tokenMaker token.Maker, limiter ratelimit.ILimiter, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(otelhttp.NewMiddleware("storefront",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	))
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.AuthPayloadMiddleware(tokenMaker))
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.SuccessJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.Handler())

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		if limiter != nil {
			r.Use(m.NewRateLimitMiddleware(limiter))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", server.AuthHandler.SignUp)
			r.Post("/login", server.AuthHandler.Login)
			r.Post("/refresh-token", server.AuthHandler.RefreshToken)
			r.With(m.AuthMiddleware).Get("/me", server.AuthHandler.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", server.ProductHandler.ListProducts)
			r.Get("/search", server.ProductHandler.SearchProducts)
			r.Get("/categories", server.ProductHandler.ListCategories)
			r.Get("/{id}", server.ProductHandler.GetProduct)
			r.Get("/{id}/availability", server.ProductHandler.GetAvailability)
		})

		r.Group(func(r chi.Router) {
			r.Use(m.AuthMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", server.CartHandler.GetCart)
				r.Delete("/", server.CartHandler.Clear)
				r.Post("/items", server.CartHandler.AddItem)
				r.Put("/items/{id}", server.CartHandler.UpdateItem)
				r.Delete("/items/{id}", server.CartHandler.RemoveItem)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", server.OrderHandler.PlaceOrder)
				r.Get("/", server.OrderHandler.ListMyOrders)
				r.Get("/{id}", server.OrderHandler.GetOrder)
				r.Post("/{id}/cancel", server.OrderHandler.CancelOrder)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(m.AdminMiddleware)
				r.Get("/dashboard", server.AdminHandler.Dashboard)
				r.Get("/reports/sales", server.AdminHandler.SalesReport)
				r.Get("/reports/products", server.AdminHandler.ProductPerformance)
				r.Get("/orders", server.AdminHandler.ListOrders)
				r.Put("/orders/{id}/status", server.AdminHandler.UpdateOrderStatus)
				r.Post("/products", server.ProductHandler.CreateProduct)
				r.Put("/products/{id}", server.ProductHandler.UpdateProduct)
				r.Post("/products/{id}/restock", server.ProductHandler.Restock)
				r.Get("/users", server.AdminHandler.ListUsers)
				r.Get("/users/{id}", server.AdminHandler.GetUser)
				r.Put("/users/{id}/status", server.AdminHandler.UpdateUserStatus)
				r.Put("/users/{id}/role", server.AdminHandler.UpdateUserRole)
				r.Post("/users/{id}/promote", server.AdminHandler.PromoteUser)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.ErrorJSON(w, r, errRouteNotFound)
	})
	return r
}
