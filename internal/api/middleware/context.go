package middleware

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
)

type ContextKey string

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "bearer"
	RequestIDHeaderKey      = "X-Request-ID"

	authorizationPayloadKey ContextKey = "authorization_payload"
	requestIDKey            ContextKey = "request_id"
)

func WithPayload(ctx context.Context, payload *token.Payload) context.Context {
	return context.WithValue(ctx, authorizationPayloadKey, payload)
}

// PayloadFromContext 未登入時回傳 nil
func PayloadFromContext(ctx context.Context) *token.Payload {
	payload, _ := ctx.Value(authorizationPayloadKey).(*token.Payload)
	return payload
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

func IsAdmin(payload *token.Payload) bool {
	return payload != nil && payload.Role == string(model.UserRoleAdmin)
}
