package dto

import (
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/shopspring/decimal"
)

type VariantDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	SKU   string `json:"sku"`
}

// CreateProductDTO 金額可以是字串或數字
type CreateProductDTO struct {
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Price         decimal.Decimal  `json:"price" swaggertype:"string"`
	DiscountPrice *decimal.Decimal `json:"discount_price" swaggertype:"string"`
	Stock         int              `json:"stock"`
	Active        *bool            `json:"active"` // 未帶時預設上架
	Featured      bool             `json:"featured"`
	Variants      []VariantDTO     `json:"variants"`
}

func (d CreateProductDTO) ToInput() service.CreateProductInput {
	active := true
	if d.Active != nil {
		active = *d.Active
	}
	input := service.CreateProductInput{
		SKU:           d.SKU,
		Name:          d.Name,
		Description:   d.Description,
		Category:      d.Category,
		Price:         d.Price,
		DiscountPrice: d.DiscountPrice,
		Stock:         d.Stock,
		Active:        active,
		Featured:      d.Featured,
	}
	for _, v := range d.Variants {
		input.Variants = append(input.Variants, service.VariantInput{Name: v.Name, Value: v.Value, SKU: v.SKU})
	}
	return input
}

// UpdateProductDTO 沒有 stock 欄位, 庫存只能走 restock 或訂單
type UpdateProductDTO struct {
	SKU           *string          `json:"sku"`
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	Price         *decimal.Decimal `json:"price" swaggertype:"string"`
	DiscountPrice *decimal.Decimal `json:"discount_price" swaggertype:"string"`
	ClearDiscount bool             `json:"clear_discount"`
	Active        *bool            `json:"active"`
	Featured      *bool            `json:"featured"`
}

func (d UpdateProductDTO) ToInput() service.UpdateProductInput {
	return service.UpdateProductInput{
		SKU:           d.SKU,
		Name:          d.Name,
		Description:   d.Description,
		Category:      d.Category,
		Price:         d.Price,
		DiscountPrice: d.DiscountPrice,
		ClearDiscount: d.ClearDiscount,
		Active:        d.Active,
		Featured:      d.Featured,
	}
}

type RestockDTO struct {
	Quantity int `json:"quantity"`
}
