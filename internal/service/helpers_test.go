package service_test

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db            *db.UnifiedDBImpl
	ledger        *service.StockLedger
	cart          *service.CartService
	statusMachine *service.OrderStatusMachine
	orders        *service.OrderService
}

func newFixture(t *testing.T, eventProducer producer.IOrderEventProducer) *fixture {
	t.Helper()
	unified := dbtest.NewUnifiedDB(t)
	ledger := service.NewStockLedger(unified, nil, nil)
	statusMachine := service.NewOrderStatusMachine(unified, ledger, eventProducer, nil)
	return &fixture{
		db:            unified,
		ledger:        ledger,
		cart:          service.NewCartService(unified, nil),
		statusMachine: statusMachine,
		orders: service.NewOrderService(
			unified,
			ledger,
			statusMachine,
			service.StaticStoreSettings(model.DefaultStoreSettings()),
			eventProducer,
			nil,
		),
	}
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	stock, err := f.ledger.GetAvailable(context.Background(), productID)
	require.NoError(t, err)
	return stock
}

// putInCart 直接寫入購物車, 不經過庫存提示檢查
func (f *fixture) putInCart(t *testing.T, userID int, productID string, quantity int) {
	t.Helper()
	require.NoError(t, f.db.UpsertCartItem(context.Background(), &model.CartItem{
		CartItemID: uuid.NewString(),
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
	}))
}

func testAddress() model.ShippingAddress {
	return model.ShippingAddress{
		Name:       "Jane Doe",
		Street:     "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	}
}

func placeInput() service.PlaceOrderInput {
	return service.PlaceOrderInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	}
}
