// Package store holds the order model of the shop front. It is the source
// side of the sample rule files and of the loader and generator tests.
package store

import (
	"strconv"
	"time"
)

// Product represents an individual item available for sale.
// Prices are in cents to avoid floating-point errors.
type Product struct {
	ID          int64     `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Inventory   int       `json:"inventory_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Address is a postal address.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
}

// Customer represents the user placing orders.
type Customer struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Address  *Address `json:"address"`
	IsActive bool     `json:"is_active"`
}

// Order represents a transaction made by a customer.
type Order struct {
	ID         int64       `json:"id"`
	CustomerID int64       `json:"customer_id"`
	Customer   Customer    `json:"customer"`
	Status     OrderStatus `json:"status"`
	TotalCents int64       `json:"total_cents"`
	Items      []OrderItem `json:"items"`
	OrderedAt  time.Time   `json:"ordered_at"`
	Notes      string      `json:"notes,omitempty"`

	internalRef string
}

// OrderItem represents a specific product line within an order.
// It snapshots the price at the time of purchase.
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// OrderStatus is a custom type for type-safe status handling.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Ref returns the internal reference of the order.
func (o Order) Ref() string {
	return o.internalRef
}

// TotalAmount sums the order lines in cents.
func TotalAmount(o Order) int64 {
	var total int64
	for _, it := range o.Items {
		total += int64(it.Quantity) * it.UnitPrice
	}

	return total
}

// OrderNumber formats the public order number.
func OrderNumber(o Order) string {
	return "SO-" + strconv.FormatInt(o.ID, 10)
}
