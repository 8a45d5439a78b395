package producer

import (
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	OrderPlacedEventType        EventType = "order.placed"
	OrderStatusChangedEventType EventType = "order.status_changed"
)

type Event interface {
	Type() EventType
	Key() string
}

type OrderPlacedItem struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPlacedEvent struct {
	OrderID     string            `json:"order_id"`
	UserID      int               `json:"user_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Currency    string            `json:"currency"`
	Items       []OrderPlacedItem `json:"items"`
	PlacedAt    time.Time         `json:"placed_at"`
}

func NewOrderPlacedEvent(order *model.Order) *OrderPlacedEvent {
	items := make([]OrderPlacedItem, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		items = append(items, OrderPlacedItem{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return &OrderPlacedEvent{
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		Items:       items,
		PlacedAt:    order.PlacedAt,
	}
}

func (e *OrderPlacedEvent) Type() EventType { return OrderPlacedEventType }
func (e *OrderPlacedEvent) Key() string     { return e.OrderID }

type OrderStatusChangedEvent struct {
	OrderID       string              `json:"order_id"`
	UserID        int                 `json:"user_id"`
	From          model.OrderStatus   `json:"from"`
	To            model.OrderStatus   `json:"to"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	StockReleased bool                `json:"stock_released"`
	Actor         string              `json:"actor"`
	ChangedAt     time.Time           `json:"changed_at"`
}

func (e *OrderStatusChangedEvent) Type() EventType { return OrderStatusChangedEventType }
func (e *OrderStatusChangedEvent) Key() string     { return e.OrderID }
