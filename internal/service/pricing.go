package service

import (
	"github.com/shopspring/decimal"

	"github.com/flicky/phone-store-api/internal/model"
)

var hundred = decimal.NewFromInt(100)

// UnitPrice applies a percentage discount to a sell price.
func UnitPrice(sellPrice, discountPercent decimal.Decimal) decimal.Decimal {
	return sellPrice.Sub(sellPrice.Mul(discountPercent).Div(hundred))
}

func LineTotal(sellPrice, discountPercent decimal.Decimal, quantity int) decimal.Decimal {
	return UnitPrice(sellPrice, discountPercent).Mul(decimal.NewFromInt(int64(quantity)))
}

func CartSubtotal(lines []model.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.SellPrice, l.Discount, l.Quantity))
	}
	return total
}

// OrderTotal is subtotal + shipping - coupon discount, never below zero.
func OrderTotal(subtotal, shipping, couponDiscount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(shipping).Sub(couponDiscount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
