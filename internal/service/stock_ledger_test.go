package service_test

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type StockLedgerTestSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func TestStockLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(StockLedgerTestSuite))
}

func (suite *StockLedgerTestSuite) SetupTest() {
	suite.f = newFixture(suite.T(), nil)
	suite.ctx = context.Background()
}

func (suite *StockLedgerTestSuite) TestReserveAndRelease() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-1", "10.00", 5)

	suite.Require().NoError(suite.f.ledger.Reserve(suite.ctx, product.ProductID, 2))
	suite.Equal(3, suite.f.stock(suite.T(), product.ProductID))

	suite.Require().NoError(suite.f.ledger.Release(suite.ctx, product.ProductID, 2))
	suite.Equal(5, suite.f.stock(suite.T(), product.ProductID))

	suite.Require().NoError(suite.f.ledger.Restock(suite.ctx, product.ProductID, 10))
	suite.Equal(15, suite.f.stock(suite.T(), product.ProductID))
}

func (suite *StockLedgerTestSuite) TestReserve_InsufficientLeavesStock() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-1", "10.00", 3)

	err := suite.f.ledger.Reserve(suite.ctx, product.ProductID, 4)
	suite.ErrorIs(err, errs.ErrInsufficientStock)

	items := service.InsufficientStockItems(err)
	suite.Require().Len(items, 1)
	suite.Equal(4, items[0].Requested)
	suite.Equal(3, items[0].Available)
	suite.Equal(3, suite.f.stock(suite.T(), product.ProductID))
}

func (suite *StockLedgerTestSuite) TestReserve_InvalidArguments() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-1", "10.00", 3)

	suite.ErrorIs(suite.f.ledger.Reserve(suite.ctx, product.ProductID, 0), errs.ErrInvalidArgument)
	suite.ErrorIs(suite.f.ledger.Reserve(suite.ctx, product.ProductID, -1), errs.ErrInvalidArgument)
	suite.ErrorIs(suite.f.ledger.Release(suite.ctx, product.ProductID, 0), errs.ErrInvalidArgument)
	suite.ErrorIs(suite.f.ledger.Reserve(suite.ctx, uuid.NewString(), 1), errs.ErrNotFound)

	_, err := suite.f.ledger.GetAvailable(suite.ctx, uuid.NewString())
	suite.ErrorIs(err, errs.ErrNotFound)
}

// 庫存 1, 兩個同時扣 1, 只能有一個成功
// sqlite 只開一條連線, 語句實際上是序列執行, 真正的並行競爭見 stock_ledger_integration_test.go
func (suite *StockLedgerTestSuite) TestReserve_RaceOnLastUnit() {
	for round := 0; round < 20; round++ {
		product := dbtest.CreateProduct(suite.T(), suite.f.db, uuid.NewString(), "10.00", 1)

		var g errgroup.Group
		results := make([]error, 2)
		for i := range results {
			i := i
			g.Go(func() error {
				results[i] = suite.f.ledger.Reserve(suite.ctx, product.ProductID, 1)
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
			suite.ErrorIs(err, errs.ErrInsufficientStock)
		}
		suite.Equal(1, success)
		suite.Equal(0, suite.f.stock(suite.T(), product.ProductID))
	}
}

// 任意扣減序列後庫存都不會是負數
func (suite *StockLedgerTestSuite) TestStockNeverNegative() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-1", "10.00", 7)

	var g errgroup.Group
	for i := 0; i < 30; i++ {
		qty := i%3 + 1
		g.Go(func() error {
			_ = suite.f.ledger.Reserve(suite.ctx, product.ProductID, qty)
			return nil
		})
	}
	suite.Require().NoError(g.Wait())
	suite.GreaterOrEqual(suite.f.stock(suite.T(), product.ProductID), 0)
}
