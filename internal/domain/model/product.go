package model

import (
	"github.com/shopspring/decimal"
)

// 庫存只記在product上, variant只是描述性資料
type Product struct {
	ProductID     string           `gorm:"primaryKey;type:varchar(36)" json:"product_id"`
	SKU           string           `gorm:"uniqueIndex;not null;type:varchar(64)" json:"sku"`
	Name          string           `gorm:"not null;type:varchar(255)" json:"name"`
	Description   string           `gorm:"type:text" json:"description"`
	Category      string           `gorm:"index;type:varchar(100)" json:"category"`
	Price         decimal.Decimal  `gorm:"not null;type:decimal(12,2)" json:"price" swaggertype:"string"`
	DiscountPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount_price,omitempty" swaggertype:"string"`
	Stock         int              `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock >= 0" json:"stock"`
	Active        bool             `gorm:"not null" json:"active"`
	Featured      bool             `gorm:"not null" json:"featured"`
	Variants      []ProductVariant `gorm:"foreignKey:ProductID;references:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	BaseModel
}

type ProductVariant struct {
	VariantID string `gorm:"primaryKey;type:varchar(36)" json:"variant_id"`
	ProductID string `gorm:"index;not null;type:varchar(36)" json:"product_id"`
	Name      string `gorm:"not null;type:varchar(100)" json:"name"`
	Value     string `gorm:"not null;type:varchar(100)" json:"value"`
	SKU       string `gorm:"type:varchar(64)" json:"sku"`
	BaseModel
}

// EffectivePrice 有折扣價且低於原價時使用折扣價
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() && p.DiscountPrice.LessThan(p.Price) {
		return *p.DiscountPrice
	}
	return p.Price
}

func (p *Product) HasVariant(variantID string) bool {
	for _, v := range p.Variants {
		if v.VariantID == variantID {
			return true
		}
	}
	return false
}

// StockShortage 描述某個商品庫存不足的情況, 回給client調整數量用
type StockShortage struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}
