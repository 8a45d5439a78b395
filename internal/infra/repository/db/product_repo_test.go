package db_test

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type ProductRepoTestSuite struct {
	suite.Suite
	db  *db.UnifiedDBImpl
	ctx context.Context
}

func TestProductRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ProductRepoTestSuite))
}

func (suite *ProductRepoTestSuite) SetupTest() {
	suite.db = dbtest.NewUnifiedDB(suite.T())
	suite.ctx = context.Background()
}

func (suite *ProductRepoTestSuite) TestCreateProduct_DuplicateSKU() {
	dbtest.CreateProduct(suite.T(), suite.db, "SKU-1", "10.00", 5)

	err := suite.db.CreateProduct(suite.ctx, &model.Product{
		ProductID: uuid.NewString(),
		SKU:       "SKU-1",
		Name:      "other",
		Price:     decimal.NewFromInt(1),
	})
	suite.ErrorIs(err, db.ErrProductSKUExists)
}

func (suite *ProductRepoTestSuite) TestGetProductByID_NotFound() {
	_, err := suite.db.GetProductByID(suite.ctx, uuid.NewString())
	suite.ErrorIs(err, db.ErrProductNotFound)
}

func (suite *ProductRepoTestSuite) TestDeductProductStock() {
	product := dbtest.CreateProduct(suite.T(), suite.db, "SKU-1", "10.00", 5)

	suite.Require().NoError(suite.db.DeductProductStock(suite.ctx, product.ProductID, 2))
	stock, err := suite.db.GetProductStock(suite.ctx, product.ProductID)
	suite.Require().NoError(err)
	suite.Equal(3, stock)

	err = suite.db.DeductProductStock(suite.ctx, product.ProductID, 4)
	suite.ErrorIs(err, db.ErrProductStockNotEnough)

	stock, err = suite.db.GetProductStock(suite.ctx, product.ProductID)
	suite.Require().NoError(err)
	suite.Equal(3, stock)

	err = suite.db.DeductProductStock(suite.ctx, uuid.NewString(), 1)
	suite.ErrorIs(err, db.ErrProductNotFound)
}

func (suite *ProductRepoTestSuite) TestDeductProductStock_Concurrent() {
	product := dbtest.CreateProduct(suite.T(), suite.db, "SKU-1", "10.00", 10)

	var g errgroup.Group
	results := make([]error, 25)
	for i := 0; i < len(results); i++ {
		i := i
		g.Go(func() error {
			results[i] = suite.db.DeductProductStock(suite.ctx, product.ProductID, 1)
			return nil
		})
	}
	suite.Require().NoError(g.Wait())

	success := 0
	for _, err := range results {
		if err == nil {
			success++
			continue
		}
		suite.ErrorIs(err, db.ErrProductStockNotEnough)
	}
	suite.Equal(10, success)

	stock, err := suite.db.GetProductStock(suite.ctx, product.ProductID)
	suite.Require().NoError(err)
	suite.Equal(0, stock)
}

func (suite *ProductRepoTestSuite) TestAddProductStock() {
	product := dbtest.CreateProduct(suite.T(), suite.db, "SKU-1", "10.00", 0)

	suite.Require().NoError(suite.db.AddProductStock(suite.ctx, product.ProductID, 7))
	stock, err := suite.db.GetProductStock(suite.ctx, product.ProductID)
	suite.Require().NoError(err)
	suite.Equal(7, stock)

	suite.ErrorIs(suite.db.AddProductStock(suite.ctx, uuid.NewString(), 1), db.ErrProductNotFound)
}

func (suite *ProductRepoTestSuite) TestStockCheckConstraint() {
	product := dbtest.CreateProduct(suite.T(), suite.db, "SKU-1", "10.00", 1)

	err := suite.db.GetDB().Exec("UPDATE products SET stock = -1 WHERE product_id = ?", product.ProductID).Error
	suite.Error(err)
}

func (suite *ProductRepoTestSuite) TestUpdateProductFields_IgnoresStock() {
	product := dbtest.CreateProduct(suite.T(), suite.db, "SKU-1", "10.00", 4)

	err := suite.db.UpdateProductFields(suite.ctx, product.ProductID, map[string]any{
		"name":  "renamed",
		"stock": 100,
	})
	suite.Require().NoError(err)

	got, err := suite.db.GetProductByID(suite.ctx, product.ProductID)
	suite.Require().NoError(err)
	suite.Equal("renamed", got.Name)
	suite.Equal(4, got.Stock)
}

func (suite *ProductRepoTestSuite) TestListProducts() {
	dbtest.CreateProduct(suite.T(), suite.db, "MUG-1", "10.00", 1)
	dbtest.CreateProduct(suite.T(), suite.db, "MUG-2", "12.00", 1)
	hidden := dbtest.CreateProduct(suite.T(), suite.db, "CAP-1", "8.00", 1)
	suite.Require().NoError(suite.db.UpdateProductFields(suite.ctx, hidden.ProductID, map[string]any{"active": false}))

	products, total, err := suite.db.ListProducts(suite.ctx, db.ProductFilter{ActiveOnly: true, Limit: 10})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(products, 2)

	products, total, err = suite.db.ListProducts(suite.ctx, db.ProductFilter{Query: "mug-2", Limit: 10})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(products, 1)
	suite.Equal("MUG-2", products[0].SKU)

	products, total, err = suite.db.ListProducts(suite.ctx, db.ProductFilter{Offset: 2, Limit: 2})
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Len(products, 1)
}

func (suite *ProductRepoTestSuite) TestListCategories() {
	mug := dbtest.CreateProduct(suite.T(), suite.db, "MUG-1", "10.00", 1)
	dbtest.CreateProduct(suite.T(), suite.db, "MUG-2", "12.00", 1)
	capProduct := dbtest.CreateProduct(suite.T(), suite.db, "CAP-1", "8.00", 1)
	hidden := dbtest.CreateProduct(suite.T(), suite.db, "CAP-2", "8.00", 1)
	bare := dbtest.CreateProduct(suite.T(), suite.db, "BARE-1", "8.00", 1)

	suite.Require().NoError(suite.db.UpdateProductFields(suite.ctx, mug.ProductID, map[string]any{"category": "kitchen"}))
	suite.Require().NoError(suite.db.UpdateProductFields(suite.ctx, capProduct.ProductID, map[string]any{"category": "apparel"}))
	suite.Require().NoError(suite.db.UpdateProductFields(suite.ctx, hidden.ProductID, map[string]any{"category": "hidden", "active": false}))
	suite.Require().NoError(suite.db.UpdateProductFields(suite.ctx, bare.ProductID, map[string]any{"category": ""}))

	categories, err := suite.db.ListCategories(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal([]db.CategoryCount{
		{Category: "apparel", ProductCount: 1},
		{Category: "kitchen", ProductCount: 1},
		{Category: "test", ProductCount: 1},
	}, categories)
}
