package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// IProductCache 商品讀取快取 (cache-aside), db 永遠是真相來源
type IProductCache interface {
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	SetProduct(ctx context.Context, product *model.Product) error
	DeleteProducts(ctx context.Context, productIDs ...string) error
}

/*	結構:
	{prefix}:product:{productID} -> product json
*/

type ProductCacheRepo struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewProductCacheRepo(client *redis.Client, prefix string, ttl time.Duration) *ProductCacheRepo {
	return &ProductCacheRepo{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

var _ IProductCache = (*ProductCacheRepo)(nil)

func (r *ProductCacheRepo) productKey(productID string) string {
	var builder strings.Builder
	builder.Grow(len(r.prefix) + len(":product:") + len(productID))
	builder.WriteString(r.prefix)
	builder.WriteString(":product:")
	builder.WriteString(productID)
	return builder.String()
}

// GetProduct 錯誤:
//   - ErrCacheMiss: 快取不存在
//   - err: 其他錯誤
func (r *ProductCacheRepo) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	data, err := r.client.Get(ctx, r.productKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var product model.Product
	if err := json.Unmarshal(data, &product); err != nil {
		// 壞掉的資料直接當作 miss, 由呼叫端回源
		r.client.Del(ctx, r.productKey(productID))
		return nil, ErrCacheMiss
	}
	return &product, nil
}

func (r *ProductCacheRepo) SetProduct(ctx context.Context, product *model.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.productKey(product.ProductID), data, r.ttl).Err()
}

func (r *ProductCacheRepo) DeleteProducts(ctx context.Context, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, r.productKey(id))
	}
	return r.client.Del(ctx, keys...).Err()
}
