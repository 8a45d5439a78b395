package middleware

import (
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
)

// 解析 access token, 任何錯誤都不會中斷, payload 有錯誤就不會設置 context
// 是否必須登入由 AuthMiddleware 決定
func AuthPayloadMiddleware(tokenMaker token.Maker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := checkAuthPayload(tokenMaker, r)
			if ok {
				next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func checkAuthPayload(tokenMaker token.Maker, r *http.Request) (*token.Payload, bool) {
	fields := strings.Fields(r.Header.Get(AuthorizationHeaderKey))
	if len(fields) != 2 {
		return nil, false
	}
	if strings.ToLower(fields[0]) != AuthorizationTypeBearer {
		return nil, false
	}

	payload, err := tokenMaker.VerifyToken(fields[1], token.AccessToken)
	if err != nil {
		return nil, false
	}
	return payload, true
}
