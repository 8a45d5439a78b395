package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnifiedDB 統一的資料庫介面, service 只依賴這個介面
type UnifiedDB interface {
	GetDB() *gorm.DB
	InitMigrate() error
	// ExecTx fn 內拿到的 UnifiedDB 綁定同一個交易
	ExecTx(ctx context.Context, fn func(tx UnifiedDB) error) error

	IProductRepository
	ICartRepository
	IOrderRepository
	IUserRepository
}

type IProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, productID string) (*model.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, productIDs []string) ([]model.Product, error)
	UpdateProductFields(ctx context.Context, productID string, fields map[string]any) error
	ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	ListCategories(ctx context.Context) ([]CategoryCount, error)
	CountProducts(ctx context.Context) (int64, error)
	GetProductStock(ctx context.Context, productID string) (int, error)
	DeductProductStock(ctx context.Context, productID string, quantity int) error
	AddProductStock(ctx context.Context, productID string, quantity int) error
}

type ICartRepository interface {
	GetCartItems(ctx context.Context, userID int) ([]model.CartItem, error)
	GetCartItem(ctx context.Context, userID int, cartItemID string) (*model.CartItem, error)
	FindCartItem(ctx context.Context, userID int, productID, variantID string) (*model.CartItem, error)
	UpsertCartItem(ctx context.Context, item *model.CartItem) error
	UpdateCartItemQuantity(ctx context.Context, userID int, cartItemID string, quantity int) error
	DeleteCartItem(ctx context.Context, userID int, cartItemID string) error
	ClearCart(ctx context.Context, userID int) error
}

type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrderForUpdate(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	CompareAndSetOrderStatus(ctx context.Context, orderID string, update OrderStatusUpdate) (bool, error)
	AppendOrderStatusHistory(ctx context.Context, history *model.OrderStatusHistory) error
	CountOrders(ctx context.Context) (int64, error)
	SumOrderAmountByStatus(ctx context.Context, status model.OrderStatus) (decimal.Decimal, error)
	GetProductSales(ctx context.Context, status model.OrderStatus, limit int) ([]ProductSales, error)
	GetRecentOrders(ctx context.Context, limit int) ([]model.Order, error)
	GetOrdersByStatusInRange(ctx context.Context, status model.OrderStatus, start, end *time.Time) ([]model.Order, error)
}

type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
	CountUsersByRole(ctx context.Context, role model.UserRole) (int64, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	UpdateUserFields(ctx context.Context, id int, fields map[string]any) error
}

// UnifiedDBImpl 統一資料庫實現
type UnifiedDBImpl struct {
	dbDao *DbDao
	*ProductRepo
	*CartRepo
	*OrderRepo
	*UserRepo
}

func NewUnifiedDB(db *gorm.DB) *UnifiedDBImpl {
	return newUnifiedDB(NewDbDao(db))
}

func newUnifiedDB(dbDao *DbDao) *UnifiedDBImpl {
	return &UnifiedDBImpl{
		dbDao:       dbDao,
		ProductRepo: NewProductRepo(dbDao),
		CartRepo:    NewCartRepo(dbDao),
		OrderRepo:   NewOrderRepo(dbDao),
		UserRepo:    NewUserRepo(dbDao),
	}
}

func (u *UnifiedDBImpl) GetDB() *gorm.DB {
	return u.dbDao.DB
}

func (u *UnifiedDBImpl) InitMigrate() error {
	return u.dbDao.InitMigrate()
}

func (u *UnifiedDBImpl) ExecTx(ctx context.Context, fn func(tx UnifiedDB) error) error {
	return u.dbDao.ExecTx(ctx, func(tx *DbDao) error {
		return fn(newUnifiedDB(tx))
	})
}

// Close 關閉底層連線池
func (u *UnifiedDBImpl) Close() error {
	sqlDB, err := u.dbDao.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
