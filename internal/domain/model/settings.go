package model

import (
	"github.com/shopspring/decimal"
)

// StoreSettings 下單時注入的稅率與運費設定
type StoreSettings struct {
	TaxRate               decimal.Decimal
	ShippingFlatRate      decimal.Decimal
	FreeShippingThreshold decimal.Decimal // 0 表示不免運
	Currency              string
}

func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		TaxRate:               decimal.RequireFromString("0.08"),
		ShippingFlatRate:      decimal.RequireFromString("9.99"),
		FreeShippingThreshold: decimal.RequireFromString("100"),
		Currency:              "USD",
	}
}

// Charges 依小計計算稅金與運費, 稅金四捨五入到分
func (s StoreSettings) Charges(subtotal decimal.Decimal) (tax, shipping decimal.Decimal) {
	tax = subtotal.Mul(s.TaxRate).Round(2)
	shipping = s.ShippingFlatRate
	if subtotal.IsZero() {
		shipping = decimal.Zero
	}
	if s.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(s.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	return tax, shipping
}
