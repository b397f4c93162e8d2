package orders

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no order has the requested id.
var ErrNotFound = errors.New("order not found")

// Status values stored in orders.status.
const (
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

// Shipping and refund sub-states.
const (
	ShippingPending   = "pending"
	ShippingShipped   = "shipped"
	ShippingDelivered = "delivered"

	RefundNone     = "none"
	RefundPending  = "pending"
	RefundRefunded = "refunded"
)

// Summary is the short form of an order listed after verification.
type Summary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Order is the full record used by the order responder.
type Order struct {
	ID             string     `json:"id"`
	CustomerID     string     `json:"customer_id"`
	Status         string     `json:"status"`
	ShippingStatus string     `json:"shipping_status"`
	RefundStatus   string     `json:"refund_status"`
	TotalAmount    float64    `json:"total_amount"`
	CreatedAt      time.Time  `json:"created_at"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	RefundedAt     *time.Time `json:"refunded_at,omitempty"`
	Items          []Item     `json:"items,omitempty"`
}

// Item is one line of an order.
type Item struct {
	ProductID string  `json:"product_id" yaml:"product_id"`
	Name      string  `json:"name" yaml:"name"`
	Quantity  int     `json:"quantity" yaml:"quantity"`
	Price     float64 `json:"price" yaml:"price"`
}

// Refunded reports whether a refund has been issued.
func (o *Order) Refunded() bool {
	return (o.Status == StatusRefunded || o.RefundStatus == RefundRefunded) && o.RefundedAt != nil
}

// Delivered reports whether the order has reached the customer.
func (o *Order) Delivered() bool {
	return (o.Status == StatusDelivered || o.ShippingStatus == ShippingDelivered) && o.DeliveredAt != nil
}

// Shipped reports whether the order has left the warehouse.
func (o *Order) Shipped() bool {
	return o.ShippedAt != nil
}

// Fixture is the YAML seed format accepted by Import.
type Fixture struct {
	Customers []FixtureCustomer `yaml:"customers"`
}

// FixtureCustomer is one customer and their orders in a Fixture.
type FixtureCustomer struct {
	ID     string         `yaml:"id"`
	Email  string         `yaml:"email"`
	Phone  string         `yaml:"phone"`
	Name   string         `yaml:"name"`
	Orders []FixtureOrder `yaml:"orders"`
}

// FixtureOrder is one order in a Fixture. Timestamps are RFC 3339 or YYYY-MM-DD.
type FixtureOrder struct {
	ID             string  `yaml:"id"`
	Status         string  `yaml:"status"`
	ShippingStatus string  `yaml:"shipping_status"`
	RefundStatus   string  `yaml:"refund_status"`
	TotalAmount    float64 `yaml:"total_amount"`
	CreatedAt      string  `yaml:"created_at"`
	ShippedAt      string  `yaml:"shipped_at"`
	DeliveredAt    string  `yaml:"delivered_at"`
	RefundedAt     string  `yaml:"refunded_at"`
	Items          []Item  `yaml:"items"`
}
