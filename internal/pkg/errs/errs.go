package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	InsufficientStockCode   Code = "INSUFFICIENT_STOCK"
	EmptyCartCode           Code = "EMPTY_CART"
	InvalidTransitionCode   Code = "INVALID_TRANSITION"
	NotFoundCode            Code = "NOT_FOUND"
	ConcurrencyConflictCode Code = "CONCURRENCY_CONFLICT"
	InvalidArgumentCode     Code = "INVALID_ARGUMENT"
	DuplicateSKUCode        Code = "DUPLICATE_SKU"
	AlreadyExistsCode       Code = "ALREADY_EXISTS"
	UnauthenticatedCode     Code = "UNAUTHENTICATED"
	PermissionDeniedCode    Code = "PERMISSION_DENIED"
	TooManyRequestsCode     Code = "TOO_MANY_REQUESTS"
	InternalCode            Code = "INTERNAL"
)

// 對外顯示的預設訊息
var ErrStrMap = map[Code]string{
	InsufficientStockCode:   "insufficient stock",
	EmptyCartCode:           "cart is empty",
	InvalidTransitionCode:   "invalid order status transition",
	NotFoundCode:            "resource not found",
	ConcurrencyConflictCode: "concurrent modification, please retry",
	InvalidArgumentCode:     "invalid argument",
	DuplicateSKUCode:        "sku already exists",
	AlreadyExistsCode:       "resource already exists",
	UnauthenticatedCode:     "unauthenticated",
	PermissionDeniedCode:    "permission denied",
	TooManyRequestsCode:     "too many requests",
	InternalCode:            "internal server error",
}

var httpStatusMap = map[Code]int{
	InsufficientStockCode:   http.StatusConflict,
	EmptyCartCode:           http.StatusUnprocessableEntity,
	InvalidTransitionCode:   http.StatusConflict,
	NotFoundCode:            http.StatusNotFound,
	ConcurrencyConflictCode: http.StatusConflict,
	InvalidArgumentCode:     http.StatusBadRequest,
	DuplicateSKUCode:        http.StatusConflict,
	AlreadyExistsCode:       http.StatusConflict,
	UnauthenticatedCode:     http.StatusUnauthorized,
	PermissionDeniedCode:    http.StatusForbidden,
	TooManyRequestsCode:     http.StatusTooManyRequests,
	InternalCode:            http.StatusInternalServerError,
}

// HTTPStatus 取得code對應的http status, 未知code一律500
func (c Code) HTTPStatus() int {
	if s, ok := httpStatusMap[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError 帶有錯誤碼的錯誤, 可以被 errors.Is 以 code 比對
type AppError struct {
	Code    Code
	Message string
	Data    any
	err     error
}

func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 保留原始錯誤, 方便log與errors.Is
func Wrap(code Code, err error, msg string) *AppError {
	return &AppError{Code: code, Message: msg, err: err}
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.err
}

// Is 讓 errors.Is(err, errs.ErrNotFound) 這類只比對 code 的判斷成立
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithData 附帶給client的機器可讀資訊
func (e *AppError) WithData(data any) *AppError {
	e.Data = data
	return e
}

// 供 errors.Is 比對的 code sentinel
var (
	ErrInsufficientStock   = New(InsufficientStockCode, ErrStrMap[InsufficientStockCode])
	ErrEmptyCart           = New(EmptyCartCode, ErrStrMap[EmptyCartCode])
	ErrInvalidTransition   = New(InvalidTransitionCode, ErrStrMap[InvalidTransitionCode])
	ErrNotFound            = New(NotFoundCode, ErrStrMap[NotFoundCode])
	ErrConcurrencyConflict = New(ConcurrencyConflictCode, ErrStrMap[ConcurrencyConflictCode])
	ErrInvalidArgument     = New(InvalidArgumentCode, ErrStrMap[InvalidArgumentCode])
	ErrDuplicateSKU        = New(DuplicateSKUCode, ErrStrMap[DuplicateSKUCode])
	ErrAlreadyExists       = New(AlreadyExistsCode, ErrStrMap[AlreadyExistsCode])
	ErrUnauthenticated     = New(UnauthenticatedCode, ErrStrMap[UnauthenticatedCode])
	ErrPermissionDenied    = New(PermissionDeniedCode, ErrStrMap[PermissionDeniedCode])
)

// CodeOf 取出錯誤碼, 非AppError視為Internal
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return InternalCode
}
