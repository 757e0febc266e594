package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus enumerates the order lifecycle.
type OrderStatus string

const (
	StatusProcessing     OrderStatus = "Processing"
	StatusOrderReceived  OrderStatus = "Order Received"
	StatusInTheKitchen   OrderStatus = "In the Kitchen"
	StatusSentToDelivery OrderStatus = "Sent to Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

// ValidStatus reports whether s is a known order status. Checkout creates
// orders directly in StatusOrderReceived; StatusProcessing remains a valid
// stored value but is unreachable from the checkout path.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusProcessing, StatusOrderReceived, StatusInTheKitchen,
		StatusSentToDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanCancel reports whether an order in status s may still be cancelled.
// Delivered is terminal and Cancelled is idempotent-rejected.
func (s OrderStatus) CanCancel() bool {
	return s != StatusDelivered && s != StatusCancelled
}

// OrderItem is an immutable snapshot of a catalog item at purchase time. It
// never re-reads live catalog price or name; the category/item reference is
// kept for inventory adjustment and traceability only.
type OrderItem struct {
	Name     string    `json:"name" db:"name"`
	Quantity int       `json:"quantity" db:"quantity"`
	Price    float64   `json:"price" db:"price"`
	ImageURL string    `json:"image_url" db:"image_url"`
	Category Category  `json:"category" db:"category"`
	ItemID   uuid.UUID `json:"item_id" db:"item_id"`
}

// ShippingInfo holds the delivery address captured with the order.
type ShippingInfo struct {
	Address string `json:"address" db:"ship_address"`
	City    string `json:"city" db:"ship_city"`
	State   string `json:"state" db:"ship_state"`
	Country string `json:"country" db:"ship_country"`
	PinCode string `json:"pin_code" db:"ship_pin_code"`
	PhoneNo string `json:"phone_no" db:"ship_phone_no"`
}

// PaymentInfo references the external gateway record for an order.
type PaymentInfo struct {
	ID     string `json:"id" db:"payment_id"`
	Status string `json:"status" db:"payment_status"`
}

// Order is the persisted order ledger entry. Totals are derived, recomputed on
// every save, and never trusted from client input.
type Order struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	UserID        uuid.UUID    `json:"user_id" db:"user_id"`
	Items         []OrderItem  `json:"order_items"`
	Shipping      ShippingInfo `json:"shipping_info"`
	Payment       PaymentInfo  `json:"payment_info"`
	ItemsPrice    float64      `json:"items_price" db:"items_price"`
	TaxPrice      float64      `json:"tax_price" db:"tax_price"`
	ShippingPrice float64      `json:"shipping_price" db:"shipping_price"`
	TotalPrice    float64      `json:"total_price" db:"total_price"`
	Status        OrderStatus  `json:"order_status" db:"order_status"`
	PaidAt        *time.Time   `json:"paid_at,omitempty" db:"paid_at"`
	DeliveredAt   *time.Time   `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}
