// Package dbtest 提供測試用的 in-memory sqlite 資料庫, 不需要啟動 postgres
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewUnifiedDB 每次呼叫都是獨立的資料庫
// 只開一條連線, 讓 sqlite 的寫入自然序列化, 交易內務必使用 tx
func NewUnifiedDB(t testing.TB) *db.UnifiedDBImpl {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), db.NewGormConfig(nil))
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	unified := db.NewUnifiedDB(conn)
	require.NoError(t, unified.InitMigrate())

	t.Cleanup(func() {
		_ = unified.Close()
	})
	return unified
}

// CreateProduct 建立啟用中的測試商品
func CreateProduct(t testing.TB, repo db.IProductRepository, sku string, price string, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		ProductID: uuid.NewString(),
		SKU:       sku,
		Name:      "product " + sku,
		Category:  "test",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Active:    true,
	}
	require.NoError(t, repo.CreateProduct(context.Background(), product))
	return product
}

func CreateUser(t testing.TB, repo db.IUserRepository, email string, role model.UserRole) *model.User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), &model.User{
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
	})
	require.NoError(t, err)
	return user
}
