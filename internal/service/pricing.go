package service

import (
	"math"

	"pizza-shop/internal/domain"
)

const (
	// TaxRate is the flat tax applied to the item subtotal.
	TaxRate = 0.18

	// FreeShippingAbove is the subtotal beyond which shipping is free.
	FreeShippingAbove = 350.0

	// ShippingFee applies when the subtotal does not exceed FreeShippingAbove.
	ShippingFee = 50.0
)

// Totals holds the derived prices of an order.
type Totals struct {
	ItemsPrice    float64
	TaxPrice      float64
	ShippingPrice float64
	TotalPrice    float64
}

// ComputeTotals derives all order prices from the line items. It is
// idempotent and re-run on every persistence of an order; client-supplied
// totals are never trusted.
func ComputeTotals(items []domain.OrderItem) Totals {
	var itemsPrice float64
	for _, item := range items {
		itemsPrice += item.Price * float64(item.Quantity)
	}

	taxPrice := itemsPrice * TaxRate

	shippingPrice := ShippingFee
	if itemsPrice > FreeShippingAbove {
		shippingPrice = 0
	}

	return Totals{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		TotalPrice:    itemsPrice + taxPrice + shippingPrice,
	}
}

// MinorUnits converts a price to currency minor units (paise) for the payment
// gateway, rounding half-up.
func MinorUnits(price float64) int64 {
	return int64(math.Floor(price*100 + 0.5))
}
