package model

import (
	"github.com/shopspring/decimal"
)

// 一個user對同一個(product, variant)只會有一筆, VariantID 空字串代表沒有variant
type CartItem struct {
	CartItemID string   `gorm:"primaryKey;type:varchar(36)" json:"cart_item_id"`
	UserID     int      `gorm:"not null;uniqueIndex:idx_cart_user_product_variant" json:"user_id"`
	ProductID  string   `gorm:"not null;type:varchar(36);uniqueIndex:idx_cart_user_product_variant" json:"product_id"`
	VariantID  string   `gorm:"not null;type:varchar(36);uniqueIndex:idx_cart_user_product_variant" json:"variant_id,omitempty"`
	Quantity   int      `gorm:"not null;check:chk_cart_items_quantity_positive,quantity > 0" json:"quantity"`
	Product    *Product `gorm:"foreignKey:ProductID;references:ProductID" json:"product,omitempty"`
	BaseModel
}

// CartLine 購物車顯示用, 價格為當下商品價格 (下單前價格可浮動)
type CartLine struct {
	CartItemID  string          `json:"cart_item_id"`
	ProductID   string          `json:"product_id"`
	VariantID   string          `json:"variant_id,omitempty"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string"`
	LineTotal   decimal.Decimal `json:"line_total" swaggertype:"string"`
	Available   int             `json:"available"`
	InStock     bool            `json:"in_stock"`
}

type CartView struct {
	UserID    int             `json:"user_id"`
	Lines     []CartLine      `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal" swaggertype:"string"`
	ItemCount int             `json:"item_count"`
}
