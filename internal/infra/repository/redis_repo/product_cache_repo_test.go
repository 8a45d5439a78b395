package redis_repo

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ProductCacheRepoTestSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	cache *ProductCacheRepo
	ctx   context.Context
}

func TestProductCacheRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ProductCacheRepoTestSuite))
}

func (suite *ProductCacheRepoTestSuite) SetupTest() {
	suite.mr = miniredis.RunT(suite.T())
	rdb, err := NewRedisClient(context.Background(), suite.mr.Addr())
	suite.Require().NoError(err)
	suite.rdb = rdb
	suite.cache = NewProductCacheRepo(rdb, "test", time.Minute)
	suite.ctx = context.Background()
}

func (suite *ProductCacheRepoTestSuite) TearDownTest() {
	suite.rdb.Close()
}

func (suite *ProductCacheRepoTestSuite) TestSetAndGetProduct() {
	discount := decimal.RequireFromString("7.50")
	product := &model.Product{
		ProductID:     "p1",
		SKU:           "SKU-1",
		Name:          "mug",
		Price:         decimal.RequireFromString("10.00"),
		DiscountPrice: &discount,
		Stock:         3,
		Active:        true,
	}
	suite.Require().NoError(suite.cache.SetProduct(suite.ctx, product))
	suite.True(suite.mr.Exists("test:product:p1"))
	suite.Equal(time.Minute, suite.mr.TTL("test:product:p1"))

	got, err := suite.cache.GetProduct(suite.ctx, "p1")
	suite.Require().NoError(err)
	suite.Equal("SKU-1", got.SKU)
	suite.True(got.Price.Equal(product.Price))
	suite.Require().NotNil(got.DiscountPrice)
	suite.True(got.DiscountPrice.Equal(discount))
}

func (suite *ProductCacheRepoTestSuite) TestGetProduct_Miss() {
	_, err := suite.cache.GetProduct(suite.ctx, "missing")
	suite.ErrorIs(err, ErrCacheMiss)

	suite.Require().NoError(suite.mr.Set("test:product:broken", "{not json"))
	_, err = suite.cache.GetProduct(suite.ctx, "broken")
	suite.ErrorIs(err, ErrCacheMiss)
	suite.False(suite.mr.Exists("test:product:broken"))
}

func (suite *ProductCacheRepoTestSuite) TestDeleteProducts() {
	suite.Require().NoError(suite.cache.SetProduct(suite.ctx, &model.Product{ProductID: "p1"}))
	suite.Require().NoError(suite.cache.SetProduct(suite.ctx, &model.Product{ProductID: "p2"}))

	suite.Require().NoError(suite.cache.DeleteProducts(suite.ctx, "p1", "p2"))
	suite.False(suite.mr.Exists("test:product:p1"))
	suite.False(suite.mr.Exists("test:product:p2"))
	suite.NoError(suite.cache.DeleteProducts(suite.ctx))
}
