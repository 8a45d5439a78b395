package dto

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type PlaceOrderDTO struct {
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
}

func (d PlaceOrderDTO) ToInput() service.PlaceOrderInput {
	return service.PlaceOrderInput{
		ShippingAddress: d.ShippingAddress,
		PaymentMethod:   d.PaymentMethod,
	}
}

type UpdateOrderStatusDTO struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}
