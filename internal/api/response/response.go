package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/rs/zerolog"
)

type Response struct {
	Data any `json:"data"`
}

type ResponseError struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func SuccessJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ErrorJSON AppError 依 code 決定 status, 其他錯誤一律 500 且不回傳內部訊息
// logger 由 LoggerMiddleware 放進 context, 帶有 request_id
func ErrorJSON(w http.ResponseWriter, r *http.Request, err error) {
	body := ResponseError{
		Code:    errs.InternalCode,
		Message: errs.ErrStrMap[errs.InternalCode],
	}
	var appErr *errs.AppError
	if errors.As(err, &appErr) && appErr.Code != errs.InternalCode {
		body.Code = appErr.Code
		body.Message = appErr.Message
		body.Data = appErr.Data
	}
	status := body.Code.HTTPStatus()

	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("method", r.Method).Str("url", r.URL.String()).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("code", string(body.Code)).Msg("request rejected")
	}
	writeJSON(w, status, body)
}
