package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
)

// InsufficientStockData 庫存不足時回給 client 的明細
type InsufficientStockData struct {
	Items []model.StockShortage `json:"items"`
}

func newInsufficientStockError(shortages []model.StockShortage) *errs.AppError {
	skus := make([]string, 0, len(shortages))
	for _, s := range shortages {
		if s.SKU != "" {
			skus = append(skus, s.SKU)
		} else {
			skus = append(skus, s.ProductID)
		}
	}
	return errs.Newf(errs.InsufficientStockCode, "insufficient stock for %s", strings.Join(skus, ", ")).
		WithData(InsufficientStockData{Items: shortages})
}

// InsufficientStockItems 取出庫存不足的明細, 不是庫存不足錯誤時回傳 nil
func InsufficientStockItems(err error) []model.StockShortage {
	var appErr *errs.AppError
	if !errors.As(err, &appErr) || appErr.Code != errs.InsufficientStockCode {
		return nil
	}
	if data, ok := appErr.Data.(InsufficientStockData); ok {
		return data.Items
	}
	return nil
}

// translateRepoError 把 repository 的 sentinel 轉成對外錯誤碼, 其他錯誤原樣往上
func translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrProductNotFound):
		return errs.Wrap(errs.NotFoundCode, err, "product not found")
	case errors.Is(err, db.ErrOrderNotFound):
		return errs.Wrap(errs.NotFoundCode, err, "order not found")
	case errors.Is(err, db.ErrCartItemNotFound):
		return errs.Wrap(errs.NotFoundCode, err, "cart item not found")
	case errors.Is(err, db.ErrUserNotFound):
		return errs.Wrap(errs.NotFoundCode, err, "user not found")
	case errors.Is(err, db.ErrProductSKUExists):
		return errs.Wrap(errs.DuplicateSKUCode, err, errs.ErrStrMap[errs.DuplicateSKUCode])
	}
	return err
}

func invalidArgument(format string, args ...any) *errs.AppError {
	return errs.New(errs.InvalidArgumentCode, fmt.Sprintf(format, args...))
}
