package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

type ShippingAddress struct {
	Name       string `gorm:"type:varchar(100)" json:"name"`
	Street     string `gorm:"type:varchar(255)" json:"street"`
	City       string `gorm:"type:varchar(100)" json:"city"`
	State      string `gorm:"type:varchar(100)" json:"state"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
	Country    string `gorm:"type:varchar(100)" json:"country"`
	Phone      string `gorm:"type:varchar(50)" json:"phone,omitempty"`
}

// Order 建立後金額與明細不再變動, 只有狀態由 OrderStatusMachine 修改
// 訂單不會被刪除, 取消以狀態表示
type Order struct {
	OrderID         string               `gorm:"primaryKey;type:varchar(36)" json:"order_id"`
	UserID          int                  `gorm:"not null;index" json:"user_id"`
	Status          OrderStatus          `gorm:"not null;type:varchar(20);index" json:"status"`
	PaymentStatus   PaymentStatus        `gorm:"not null;type:varchar(20)" json:"payment_status"`
	PaymentMethod   string               `gorm:"type:varchar(50)" json:"payment_method"`
	Currency        string               `gorm:"not null;type:varchar(3)" json:"currency"`
	Subtotal        decimal.Decimal      `gorm:"not null;type:decimal(12,2)" json:"subtotal" swaggertype:"string"`
	Tax             decimal.Decimal      `gorm:"not null;type:decimal(12,2)" json:"tax" swaggertype:"string"`
	ShippingCost    decimal.Decimal      `gorm:"not null;type:decimal(12,2)" json:"shipping_cost" swaggertype:"string"`
	TotalAmount     decimal.Decimal      `gorm:"not null;type:decimal(12,2)" json:"total_amount" swaggertype:"string"`
	ShippingAddress ShippingAddress      `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	StockReleased   bool                 `gorm:"not null" json:"stock_released"`
	PlacedAt        time.Time            `gorm:"not null" json:"placed_at"`
	OrderItems      []OrderItem          `gorm:"foreignKey:OrderID;references:OrderID" json:"order_items"`
	StatusHistory   []OrderStatusHistory `gorm:"foreignKey:OrderID;references:OrderID" json:"status_history,omitempty"`
	BaseModel
}

// OrderItem 下單當下的價格快照, 與商品後續異動脫鉤
type OrderItem struct {
	OrderItemID string          `gorm:"primaryKey;type:varchar(36)" json:"order_item_id"`
	OrderID     string          `gorm:"not null;index;type:varchar(36)" json:"order_id"`
	ProductID   string          `gorm:"not null;index;type:varchar(36)" json:"product_id"`
	VariantID   string          `gorm:"not null;type:varchar(36)" json:"variant_id,omitempty"`
	SKU         string          `gorm:"not null;type:varchar(64)" json:"sku"`
	ProductName string          `gorm:"not null;type:varchar(255)" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"unit_price" swaggertype:"string"`
	LineTotal   decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"line_total" swaggertype:"string"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

type OrderStatusHistory struct {
	ID         uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    string      `gorm:"not null;index;type:varchar(36)" json:"order_id"`
	FromStatus OrderStatus `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus   OrderStatus `gorm:"not null;type:varchar(20)" json:"to_status"`
	Actor      string      `gorm:"type:varchar(100)" json:"actor"`
	Note       string      `gorm:"type:varchar(255)" json:"note,omitempty"`
	CreatedAt  time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
}
