package dto

type AddCartItemDTO struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemDTO quantity <= 0 等同刪除, 未帶 quantity 視為錯誤
type UpdateCartItemDTO struct {
	Quantity *int `json:"quantity"`
}
