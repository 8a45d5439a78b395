package db

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderFilter struct {
	UserID int // 0 表示不限
	Status model.OrderStatus
	Offset int
	Limit  int
}

// OrderStatusUpdate 狀態轉換時一併寫入的欄位
type OrderStatusUpdate struct {
	From          model.OrderStatus
	To            model.OrderStatus
	PaymentStatus model.PaymentStatus // 空字串表示不變
	StockReleased bool                // true 時一併標記庫存已歸還
}

// ProductSales 單一商品的銷售統計
type ProductSales struct {
	ProductID   string          `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	UnitsSold   int64           `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue" swaggertype:"string"`
}

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreateOrder 連同 OrderItems 與 StatusHistory 一起寫入
func (s *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

func (s *OrderRepo) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("sku") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("order_id = ?", orderID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderForUpdate 交易內鎖定訂單列, sqlite 會忽略 FOR UPDATE
func (s *OrderRepo) GetOrderForUpdate(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	var items []model.OrderItem
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("sku").Find(&items).Error; err != nil {
		return nil, err
	}
	order.OrderItems = items
	return &order, nil
}

func (s *OrderRepo) ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	query = query.Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := query.Preload("OrderItems").Order("placed_at DESC").Order("order_id")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	err := q.Find(&orders).Error
	return orders, total, err
}

// CompareAndSetOrderStatus 只有目前狀態仍為 From 時才會更新
// 回傳 false 代表狀態已被其他請求改變
func (s *OrderRepo) CompareAndSetOrderStatus(ctx context.Context, orderID string, update OrderStatusUpdate) (bool, error) {
	fields := map[string]any{
		"status": update.To,
	}
	if update.PaymentStatus != "" {
		fields["payment_status"] = update.PaymentStatus
	}
	if update.StockReleased {
		fields["stock_released"] = true
	}

	query := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status = ?", orderID, update.From)
	if update.StockReleased {
		query = query.Where("stock_released = ?", false)
	}

	result := query.Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *OrderRepo) AppendOrderStatusHistory(ctx context.Context, history *model.OrderStatusHistory) error {
	return s.db.WithContext(ctx).Create(history).Error
}

func (s *OrderRepo) CountOrders(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.Order{}).Count(&total).Error
	return total, err
}

// SumOrderAmountByStatus 指定狀態訂單的總金額
func (s *OrderRepo) SumOrderAmountByStatus(ctx context.Context, status model.OrderStatus) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := s.db.WithContext(ctx).Model(&model.Order{}).
		Select("SUM(total_amount)").
		Where("status = ?", status).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// GetProductSales 依銷量排序, sku 與名稱取訂單明細上的快照
func (s *OrderRepo) GetProductSales(ctx context.Context, status model.OrderStatus, limit int) ([]ProductSales, error) {
	sales := []ProductSales{}
	err := s.db.WithContext(ctx).Table("order_items AS oi").
		Select("oi.product_id AS product_id, MAX(oi.sku) AS sku, MAX(oi.product_name) AS product_name, "+
			"SUM(oi.quantity) AS units_sold, SUM(oi.line_total) AS revenue").
		Joins("JOIN orders AS o ON o.order_id = oi.order_id").
		Where("o.status = ?", status).
		Group("oi.product_id").
		Order("units_sold DESC").
		Order("oi.product_id").
		Limit(limit).
		Scan(&sales).Error
	return sales, err
}

func (s *OrderRepo) GetRecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Order("placed_at DESC").
		Order("order_id").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// GetOrdersByStatusInRange start, end 為 nil 時不限制
func (s *OrderRepo) GetOrdersByStatusInRange(ctx context.Context, status model.OrderStatus, start, end *time.Time) ([]model.Order, error) {
	var orders []model.Order
	query := s.db.WithContext(ctx).Where("status = ?", status)
	if start != nil {
		query = query.Where("placed_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("placed_at <= ?", *end)
	}
	err := query.Preload("OrderItems").Order("placed_at").Find(&orders).Error
	return orders, err
}
