package middleware

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
)

// AuthMiddleware 驗證 context 內是否有 token payload
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PayloadFromContext(r.Context()) == nil {
			response.ErrorJSON(w, r, errs.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminMiddleware 需放在 AuthMiddleware 之後
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := PayloadFromContext(r.Context())
		if payload == nil {
			response.ErrorJSON(w, r, errs.ErrUnauthenticated)
			return
		}
		if !IsAdmin(payload) {
			response.ErrorJSON(w, r, errs.New(errs.PermissionDeniedCode, "admin only"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
