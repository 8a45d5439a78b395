package service

import (
	"context"
	"errors"
	"sort"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog"
)

type IStockLedger interface {
	GetAvailable(ctx context.Context, productID string) (int, error)
	Reserve(ctx context.Context, productID string, quantity int) error
	Release(ctx context.Context, productID string, quantity int) error
	Restock(ctx context.Context, productID string, quantity int) error
}

// StockLedger 唯一會修改 products.stock 的地方
// 扣減是單一條件式 UPDATE, 不需要 in-process lock
type StockLedger struct {
	productRepo db.IProductRepository
	cache       redis_repo.IProductCache
	logger      *zerolog.Logger
	inTx        bool
}

// cache 可以是 nil
func NewStockLedger(productRepo db.IProductRepository, cache redis_repo.IProductCache, logger *zerolog.Logger) *StockLedger {
	return &StockLedger{
		productRepo: productRepo,
		cache:       cache,
		logger:      nopIfNil(logger),
	}
}

var _ IStockLedger = (*StockLedger)(nil)

// WithTx 綁定到交易內的 repository
// 交易內不清快取, 由呼叫端在 commit 後呼叫 Invalidate
func (l *StockLedger) WithTx(tx db.IProductRepository) *StockLedger {
	return &StockLedger{
		productRepo: tx,
		cache:       l.cache,
		logger:      l.logger,
		inTx:        true,
	}
}

func (l *StockLedger) GetAvailable(ctx context.Context, productID string) (int, error) {
	stock, err := l.productRepo.GetProductStock(ctx, productID)
	if err != nil {
		return 0, translateRepoError(err)
	}
	return stock, nil
}

// Reserve 錯誤:
//   - InvalidArgument: quantity <= 0
//   - NotFound: 商品不存在
//   - InsufficientStock: 庫存不足, 庫存不會被修改
func (l *StockLedger) Reserve(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return invalidArgument("quantity must be positive")
	}

	err := l.productRepo.DeductProductStock(ctx, productID, quantity)
	if errors.Is(err, db.ErrProductStockNotEnough) {
		available, stockErr := l.productRepo.GetProductStock(ctx, productID)
		if stockErr != nil {
			return translateRepoError(stockErr)
		}
		return newInsufficientStockError([]model.StockShortage{{
			ProductID: productID,
			Requested: quantity,
			Available: available,
		}})
	}
	if err != nil {
		return translateRepoError(err)
	}

	l.invalidateNow(ctx, productID)
	return nil
}

// Release 取消或退款時歸還庫存, 沒有上限
func (l *StockLedger) Release(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return invalidArgument("quantity must be positive")
	}
	if err := l.productRepo.AddProductStock(ctx, productID, quantity); err != nil {
		return translateRepoError(err)
	}
	l.invalidateNow(ctx, productID)
	return nil
}

// Restock 進貨
func (l *StockLedger) Restock(ctx context.Context, productID string, quantity int) error {
	if err := l.Release(ctx, productID, quantity); err != nil {
		return err
	}
	l.logger.Info().Str("product_id", productID).Int("quantity", quantity).Msg("product restocked")
	return nil
}

// Invalidate 清除商品快取, 失敗只記 log, db 仍是真相來源
func (l *StockLedger) Invalidate(ctx context.Context, productIDs ...string) {
	if l.cache == nil || len(productIDs) == 0 {
		return
	}
	if err := l.cache.DeleteProducts(ctx, productIDs...); err != nil {
		l.logger.Warn().Err(err).Strs("product_ids", productIDs).Msg("invalidate product cache failed")
	}
}

func (l *StockLedger) invalidateNow(ctx context.Context, productID string) {
	if l.inTx {
		return
	}
	l.Invalidate(ctx, productID)
}

// productQuantities 依 product id 合併數量並排序, 固定的鎖定順序避免交易互相等待
func productQuantities[T any](lines []T, key func(T) (string, int)) ([]string, map[string]int) {
	quantities := make(map[string]int, len(lines))
	for _, line := range lines {
		id, qty := key(line)
		quantities[id] += qty
	}
	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, quantities
}

func nopIfNil(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return logger
}
