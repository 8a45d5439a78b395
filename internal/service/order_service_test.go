package service_test

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	mock_producer "github.com/RoyceAzure/lab/storefront/internal/infra/producer/mock"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type OrderServiceTestSuite struct {
	suite.Suite
	f        *fixture
	ctx      context.Context
	producer *mock_producer.MockIOrderEventProducer
	user     *model.User
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (suite *OrderServiceTestSuite) SetupTest() {
	ctrl := gomock.NewController(suite.T())
	suite.producer = mock_producer.NewMockIOrderEventProducer(ctrl)
	suite.f = newFixture(suite.T(), suite.producer)
	suite.ctx = context.Background()
	suite.user = dbtest.CreateUser(suite.T(), suite.f.db, "buyer@example.com", model.UserRoleCustomer)
}

func (suite *OrderServiceTestSuite) cartItemCount(userID int) int {
	view, err := suite.f.cart.GetCart(suite.ctx, userID)
	suite.Require().NoError(err)
	return view.ItemCount
}

// SKU-1 庫存 5, 下單 2
func (suite *OrderServiceTestSuite) TestPlaceOrder_Success() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-1", "10.00", 5)
	suite.f.putInCart(suite.T(), suite.user.UserID, product.ProductID, 2)

	var published *model.Order
	suite.producer.EXPECT().ProduceOrderPlaced(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, order *model.Order) error {
			published = order
			return nil
		}).Times(1)

	order, err := suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, placeInput())
	suite.Require().NoError(err)

	suite.Equal(model.OrderStatusPending, order.Status)
	suite.Equal(model.PaymentStatusPending, order.PaymentStatus)
	suite.Equal("USD", order.Currency)
	suite.True(order.Subtotal.Equal(decimal.RequireFromString("20.00")))
	suite.True(order.Tax.Equal(decimal.RequireFromString("1.60")))
	suite.True(order.ShippingCost.Equal(decimal.RequireFromString("9.99")))
	suite.True(order.TotalAmount.Equal(decimal.RequireFromString("31.59")), order.TotalAmount.String())
	suite.Require().Len(order.OrderItems, 1)
	suite.Equal("SKU-1", order.OrderItems[0].SKU)
	suite.Equal(2, order.OrderItems[0].Quantity)

	suite.Equal(3, suite.f.stock(suite.T(), product.ProductID))
	suite.Equal(0, suite.cartItemCount(suite.user.UserID))
	suite.Require().NotNil(published)
	suite.Equal(order.OrderID, published.OrderID)

	stored, err := suite.f.orders.GetOrder(suite.ctx, service.Requester{UserID: suite.user.UserID}, order.OrderID)
	suite.Require().NoError(err)
	suite.True(stored.TotalAmount.Equal(decimal.RequireFromString("31.59")))
	suite.Require().Len(stored.StatusHistory, 1)
	suite.Equal(model.OrderStatusPending, stored.StatusHistory[0].ToStatus)
}

// SKU-2 庫存 3, 下單 10
func (suite *OrderServiceTestSuite) TestPlaceOrder_InsufficientStock() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-2", "10.00", 3)
	suite.f.putInCart(suite.T(), suite.user.UserID, product.ProductID, 10)
	suite.producer.EXPECT().ProduceOrderPlaced(gomock.Any(), gomock.Any()).Times(0)

	_, err := suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, placeInput())
	suite.ErrorIs(err, errs.ErrInsufficientStock)

	items := service.InsufficientStockItems(err)
	suite.Require().Len(items, 1)
	suite.Equal("SKU-2", items[0].SKU)
	suite.Equal(10, items[0].Requested)
	suite.Equal(3, items[0].Available)

	suite.Equal(3, suite.f.stock(suite.T(), product.ProductID))
	suite.Equal(10, suite.cartItemCount(suite.user.UserID))

	orders, err := suite.f.orders.ListMyOrders(suite.ctx, suite.user.UserID, 1, 10)
	suite.Require().NoError(err)
	suite.Equal(int64(0), orders.Total)
}

// 一個商品不足時, 已扣的其他商品也要回滾, 並列出所有不足的商品
func (suite *OrderServiceTestSuite) TestPlaceOrder_AllOrNothing() {
	enough := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-A", "5.00", 10)
	shortB := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-B", "5.00", 1)
	shortC := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-C", "5.00", 0)
	suite.f.putInCart(suite.T(), suite.user.UserID, enough.ProductID, 3)
	suite.f.putInCart(suite.T(), suite.user.UserID, shortB.ProductID, 2)
	suite.f.putInCart(suite.T(), suite.user.UserID, shortC.ProductID, 1)
	suite.producer.EXPECT().ProduceOrderPlaced(gomock.Any(), gomock.Any()).Times(0)

	_, err := suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, placeInput())
	suite.ErrorIs(err, errs.ErrInsufficientStock)

	skus := map[string]bool{}
	for _, item := range service.InsufficientStockItems(err) {
		skus[item.SKU] = true
	}
	suite.Equal(map[string]bool{"SKU-B": true, "SKU-C": true}, skus)

	suite.Equal(10, suite.f.stock(suite.T(), enough.ProductID))
	suite.Equal(1, suite.f.stock(suite.T(), shortB.ProductID))
	suite.Equal(0, suite.f.stock(suite.T(), shortC.ProductID))
	suite.Equal(6, suite.cartItemCount(suite.user.UserID))
}

func (suite *OrderServiceTestSuite) TestPlaceOrder_InactiveProduct() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-1", "10.00", 5)
	suite.f.putInCart(suite.T(), suite.user.UserID, product.ProductID, 1)
	suite.Require().NoError(suite.f.db.UpdateProductFields(suite.ctx, product.ProductID, map[string]any{"active": false}))

	_, err := suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, placeInput())
	suite.ErrorIs(err, errs.ErrInsufficientStock)
	suite.Equal(5, suite.f.stock(suite.T(), product.ProductID))
}

func (suite *OrderServiceTestSuite) TestPlaceOrder_EmptyCartAndValidation() {
	_, err := suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, placeInput())
	suite.ErrorIs(err, errs.ErrEmptyCart)

	input := placeInput()
	input.ShippingAddress.City = ""
	_, err = suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, input)
	suite.ErrorIs(err, errs.ErrInvalidArgument)

	input = placeInput()
	input.PaymentMethod = " "
	_, err = suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, input)
	suite.ErrorIs(err, errs.ErrInvalidArgument)
}

// 下單後商品調價, 訂單金額不變
func (suite *OrderServiceTestSuite) TestPlaceOrder_PriceSnapshot() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-1", "60.00", 5)
	suite.f.putInCart(suite.T(), suite.user.UserID, product.ProductID, 2)
	suite.producer.EXPECT().ProduceOrderPlaced(gomock.Any(), gomock.Any()).Return(nil)

	order, err := suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, placeInput())
	suite.Require().NoError(err)
	// 小計 120 超過免運門檻
	suite.True(order.ShippingCost.IsZero())
	suite.True(order.TotalAmount.Equal(decimal.RequireFromString("129.60")), order.TotalAmount.String())

	suite.Require().NoError(suite.f.db.UpdateProductFields(suite.ctx, product.ProductID, map[string]any{
		"price": decimal.RequireFromString("99.00"),
	}))

	stored, err := suite.f.orders.GetOrder(suite.ctx, service.Requester{UserID: suite.user.UserID}, order.OrderID)
	suite.Require().NoError(err)
	suite.True(stored.OrderItems[0].UnitPrice.Equal(decimal.RequireFromString("60")))
	suite.True(stored.TotalAmount.Equal(decimal.RequireFromString("129.60")))
}

// 兩個用戶同時搶最後一件
// sqlite 只開一條連線會把交易序列化, 這裡驗的是結果, postgres 上的並行見 stock_ledger_integration_test.go
func (suite *OrderServiceTestSuite) TestPlaceOrder_ConcurrentLastUnit() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-1", "10.00", 1)
	other := dbtest.CreateUser(suite.T(), suite.f.db, "other@example.com", model.UserRoleCustomer)
	suite.f.putInCart(suite.T(), suite.user.UserID, product.ProductID, 1)
	suite.f.putInCart(suite.T(), other.UserID, product.ProductID, 1)
	suite.producer.EXPECT().ProduceOrderPlaced(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	var g errgroup.Group
	results := make([]error, 2)
	for i, userID := range []int{suite.user.UserID, other.UserID} {
		i, userID := i, userID
		g.Go(func() error {
			_, results[i] = suite.f.orders.PlaceOrder(suite.ctx, userID, placeInput())
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

func (suite *OrderServiceTestSuite) TestGetOrder_Ownership() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-1", "10.00", 5)
	suite.f.putInCart(suite.T(), suite.user.UserID, product.ProductID, 1)
	suite.producer.EXPECT().ProduceOrderPlaced(gomock.Any(), gomock.Any()).Return(nil)

	order, err := suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, placeInput())
	suite.Require().NoError(err)

	_, err = suite.f.orders.GetOrder(suite.ctx, service.Requester{UserID: suite.user.UserID + 1}, order.OrderID)
	suite.ErrorIs(err, errs.ErrNotFound)

	_, err = suite.f.orders.GetOrder(suite.ctx, service.Requester{UserID: suite.user.UserID + 1, IsAdmin: true}, order.OrderID)
	suite.NoError(err)
}

func (suite *OrderServiceTestSuite) TestCancelOwnOrder() {
	product := dbtest.CreateProduct(suite.T(), suite.f.db, "SKU-1", "10.00", 5)
	suite.producer.EXPECT().ProduceOrderPlaced(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	suite.producer.EXPECT().ProduceOrderStatusChanged(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	suite.f.putInCart(suite.T(), suite.user.UserID, product.ProductID, 2)
	order, err := suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, placeInput())
	suite.Require().NoError(err)
	suite.Equal(3, suite.f.stock(suite.T(), product.ProductID))

	cancelled, err := suite.f.orders.CancelOwnOrder(suite.ctx, suite.user.UserID, order.OrderID)
	suite.Require().NoError(err)
	suite.Equal(model.OrderStatusCancelled, cancelled.Status)
	suite.True(cancelled.StockReleased)
	suite.Equal(5, suite.f.stock(suite.T(), product.ProductID))

	// 非 PENDING 的訂單客戶不能取消
	suite.f.putInCart(suite.T(), suite.user.UserID, product.ProductID, 1)
	second, err := suite.f.orders.PlaceOrder(suite.ctx, suite.user.UserID, placeInput())
	suite.Require().NoError(err)
	_, err = suite.f.statusMachine.Transition(suite.ctx, second.OrderID, model.OrderStatusProcessing, "admin", "")
	suite.Require().NoError(err)

	_, err = suite.f.orders.CancelOwnOrder(suite.ctx, suite.user.UserID, second.OrderID)
	suite.ErrorIs(err, errs.ErrInvalidTransition)

	_, err = suite.f.orders.CancelOwnOrder(suite.ctx, suite.user.UserID+1, order.OrderID)
	suite.ErrorIs(err, errs.ErrNotFound)
}
