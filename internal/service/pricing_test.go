package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/flicky/phone-store-api/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestUnitPrice(t *testing.T) {
	assert.True(t, d("900").Equal(UnitPrice(d("1000"), d("10"))))
	assert.True(t, d("1000").Equal(UnitPrice(d("1000"), decimal.Zero)))
	assert.True(t, decimal.Zero.Equal(UnitPrice(d("1000"), d("100"))))
	assert.True(t, d("74.25").Equal(UnitPrice(d("99"), d("25"))))
}

func TestCartSubtotal(t *testing.T) {
	lines := []model.CartLine{
		{SellPrice: d("1000"), Discount: d("10"), Quantity: 2},
		{SellPrice: d("250"), Discount: decimal.Zero, Quantity: 1},
	}
	assert.True(t, d("2050").Equal(CartSubtotal(lines)))
	assert.True(t, decimal.Zero.Equal(CartSubtotal(nil)))
}

func TestOrderTotal(t *testing.T) {
	assert.True(t, d("2100").Equal(OrderTotal(d("1800"), d("300"), decimal.Zero)))
	assert.True(t, d("1600").Equal(OrderTotal(d("1800"), d("300"), d("500"))))
	assert.True(t, decimal.Zero.Equal(OrderTotal(d("100"), decimal.Zero, d("500"))))
}
