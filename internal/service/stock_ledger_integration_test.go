//go:build integration

package service_test

import (
	"context"
	"os"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// 需要真的 postgres:
//
//	STOREFRONT_TEST_DB_HOST=localhost go test -tags integration ./internal/service/...
func newPostgresDB(t *testing.T) *db.UnifiedDBImpl {
	t.Helper()
	host := os.Getenv("STOREFRONT_TEST_DB_HOST")
	if host == "" {
		t.Skip("STOREFRONT_TEST_DB_HOST not set")
	}
	cf := db.ConnConfig{
		Host:         host,
		Port:         envOr("STOREFRONT_TEST_DB_PORT", "5432"),
		User:         envOr("STOREFRONT_TEST_DB_USER", "postgres"),
		Pas:          envOr("STOREFRONT_TEST_DB_PASSWORD", "postgres"),
		DbName:       envOr("STOREFRONT_TEST_DB_NAME", "storefront_test"),
		MaxOpenConns: 16,
	}
	require.NoError(t, db.RunDBMigration("", cf))

	conn, err := db.GetDbConn(cf, nil)
	require.NoError(t, err)
	unified := db.NewUnifiedDB(conn)
	t.Cleanup(func() {
		_ = unified.Close()
	})
	return unified
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// 多條連線同時扣最後幾件, 成功數必須剛好等於庫存
func TestReserve_ConcurrentOnPostgres(t *testing.T) {
	unified := newPostgresDB(t)
	ledger := service.NewStockLedger(unified, nil, nil)
	ctx := context.Background()

	const (
		stock   = 3
		workers = 12
	)
	for round := 0; round < 10; round++ {
		product := dbtest.CreateProduct(t, unified, "IT-"+uuid.NewString(), "10.00", stock)

		var g errgroup.Group
		results := make([]error, workers)
		for i := range results {
			i := i
			g.Go(func() error {
				results[i] = ledger.Reserve(ctx, product.ProductID, 1)
				return nil
			})
		}
		require.NoError(t, g.Wait())

		success := 0
		for _, err := range results {
			if err == nil {
				success++
				continue
			}
			require.ErrorIs(t, err, errs.ErrInsufficientStock)
		}
		require.Equal(t, stock, success)

		left, err := ledger.GetAvailable(ctx, product.ProductID)
		require.NoError(t, err)
		require.Equal(t, 0, left)
	}
}

// 兩個交易同時下單搶最後一件
func TestPlaceOrder_ConcurrentOnPostgres(t *testing.T) {
	unified := newPostgresDB(t)
	ledger := service.NewStockLedger(unified, nil, nil)
	statusMachine := service.NewOrderStatusMachine(unified, ledger, nil, nil)
	orders := service.NewOrderService(
		unified,
		ledger,
		statusMachine,
		service.StaticStoreSettings(model.DefaultStoreSettings()),
		nil,
		nil,
	)
	ctx := context.Background()

	product := dbtest.CreateProduct(t, unified, "IT-"+uuid.NewString(), "10.00", 1)
	userIDs := make([]int, 2)
	for i := range userIDs {
		user := dbtest.CreateUser(t, unified, uuid.NewString()+"@example.com", model.UserRoleCustomer)
		require.NoError(t, unified.UpsertCartItem(ctx, &model.CartItem{
			CartItemID: uuid.NewString(),
			UserID:     user.UserID,
			ProductID:  product.ProductID,
			Quantity:   1,
		}))
		userIDs[i] = user.UserID
	}

	var g errgroup.Group
	results := make([]error, len(userIDs))
	for i, userID := range userIDs {
		i, userID := i, userID
		g.Go(func() error {
			_, results[i] = orders.PlaceOrder(ctx, userID, placeInput())
			return nil
		})
	}
	require.NoError(t, g.Wait())

	success := 0
	for _, err := range results {
		if err == nil {
			success++
			continue
		}
		require.ErrorIs(t, err, errs.ErrInsufficientStock)
	}
	require.Equal(t, 1, success)
}
