package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.New(errs.InvalidArgumentCode, "request body is required")
		}
		return errs.Wrap(errs.InvalidArgumentCode, err, "invalid request body")
	}
	return nil
}

// queryInt 參數不存在時回傳 def
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.Newf(errs.InvalidArgumentCode, "%s must be an integer", key)
	}
	return v, nil
}

func pathInt(r *http.Request, key string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, key))
	if err != nil {
		return 0, errs.Newf(errs.InvalidArgumentCode, "%s must be an integer", key)
	}
	return v, nil
}

func queryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errs.Newf(errs.InvalidArgumentCode, "%s must be a boolean", key)
	}
	return &v, nil
}

func paging(r *http.Request) (page, limit int, err error) {
	if page, err = queryInt(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

// queryDate 接受 RFC3339 或 2006-01-02, endOfDay 時只有日期的值取當天最後一刻
func queryDate(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, errs.Newf(errs.InvalidArgumentCode, "%s must be a date (YYYY-MM-DD) or RFC3339 time", key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// requirePayload 取出登入者, 未登入回傳 Unauthenticated
func requirePayload(r *http.Request) (*token.Payload, error) {
	payload := middleware.PayloadFromContext(r.Context())
	if payload == nil {
		return nil, errs.ErrUnauthenticated
	}
	return payload, nil
}
