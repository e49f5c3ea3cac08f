// Package warehouse holds the fulfilment model. It is the destination side
// of the sample rule files.
package warehouse

import (
	"time"
)

// Order is the fulfilment view of a shop order.
type Order struct {
	ID                  uint64      `json:"id"`
	OrderNumber         string      `json:"order_number"`
	CustomerEmail       string      `json:"customer_email"`
	CustomerFullName    string      `json:"customer_full_name"`
	CustomerAddressCity string      `json:"customer_address_city"`
	Status              string      `json:"status"`
	TotalAmount         int64       `json:"total_amount"` // in cents
	Currency            string      `json:"currency"`
	Lines               []OrderLine `json:"lines"`
	OrderedAt           time.Time   `json:"ordered_at"`
	Notes               *string     `json:"notes,omitempty"`

	// Version is maintained by the warehouse database.
	Version int `json:"version" mapper:"readonly"`
	// Audit is never populated from another model.
	Audit string `json:"-" mapper:"-"`
}

// OrderLine is one picked product of an order.
type OrderLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Shipment is the carrier hand-off of an order.
type Shipment struct {
	OrderID     uint64   `json:"order_id"`
	Destination *Address `json:"destination"`
	Priority    int      `json:"priority"`
}

// Address is a delivery address.
type Address struct {
	City string `json:"city"`
	Zip  string `json:"zip"`
}
