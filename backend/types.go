// Package backend provides the data model and HTTP client for the retail
// order backend.
package backend

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusFulfilled OrderStatus = "FULFILLED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// AllStatuses lists every valid order status, in lifecycle order.
var AllStatuses = []OrderStatus{StatusPending, StatusPaid, StatusFulfilled, StatusCancelled}

// IsValid reports whether s is a member of the status enumeration.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

// Customer is created once per placement and immutable afterwards from the
// client's perspective.
type Customer struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Product is read-only reference data; this client never mutates it.
type Product struct {
	ID    string          `json:"_id"`
	Name  string          `json:"name"`
	Stock int             `json:"stock"`
	Price decimal.Decimal `json:"price"`
}

// LineItem ties a product reference to a quantity. It has no lifecycle of its
// own; it belongs to the order that contains it. The backend may return the
// product either populated or as a bare reference, so both are kept.
type LineItem struct {
	ProductID string  `json:"-"`
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
}

// Order is the canonical order shape. The backend assigns the identifier on
// creation; it never changes and is the sole key for deduplication and lookup.
type Order struct {
	ID              string      `json:"_id"`
	Name            string      `json:"name,omitempty"`
	Customer        Customer    `json:"customer"`
	Items           []LineItem  `json:"items"`
	PaymentReceived bool        `json:"paymentReceived"`
	Status          OrderStatus `json:"status"`
}

// UnmarshalJSON tolerates both backend shapes for the product reference: a
// populated product object or a bare identifier string.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var populated struct {
		Product  json.RawMessage `json:"product"`
		Quantity int             `json:"quantity"`
	}
	if err := json.Unmarshal(data, &populated); err != nil {
		return err
	}
	li.Quantity = populated.Quantity
	if len(populated.Product) == 0 {
		return nil
	}
	if populated.Product[0] == '"' {
		if err := json.Unmarshal(populated.Product, &li.ProductID); err != nil {
			return err
		}
		return nil
	}
	if err := json.Unmarshal(populated.Product, &li.Product); err != nil {
		return err
	}
	li.ProductID = li.Product.ID
	return nil
}

// UnmarshalJSON tolerates both backend shapes for the customer reference: a
// populated customer object or a bare identifier string.
func (o *Order) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID              string          `json:"_id"`
		Name            string          `json:"name"`
		Customer        json.RawMessage `json:"customer"`
		Items           []LineItem      `json:"items"`
		PaymentReceived bool            `json:"paymentReceived"`
		Status          OrderStatus     `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = Order{
		ID:              raw.ID,
		Name:            raw.Name,
		Items:           raw.Items,
		PaymentReceived: raw.PaymentReceived,
		Status:          raw.Status,
	}
	if len(raw.Customer) == 0 {
		return nil
	}
	if raw.Customer[0] == '"' {
		return json.Unmarshal(raw.Customer, &o.Customer.ID)
	}
	return json.Unmarshal(raw.Customer, &o.Customer)
}

// CustomerName returns the resolved customer name, or "" when the customer
// reference has not been populated by the backend.
func (o Order) CustomerName() string {
	return o.Customer.Name
}

// Total sums quantity times resolved product price across all line items.
// Items whose product reference is unresolved contribute zero.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// OrderPage is one page of the admin order feed, normalized from either
// backend response shape. Limit is the page size that was requested.
type OrderPage struct {
	Orders []Order
	Limit  int
}

// Exhausted reports whether this page signals the end of the feed: the
// backend returned fewer orders than were asked for.
func (p OrderPage) Exhausted() bool {
	return len(p.Orders) < p.Limit
}

// CustomerDraft carries the fields sent to POST /customers.
type CustomerDraft struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// LineItemDraft references a product by identifier for order creation.
type LineItemDraft struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

// OrderDraft carries the fields sent to POST /orders.
type OrderDraft struct {
	CustomerID      string          `json:"customer"`
	Items           []LineItemDraft `json:"items"`
	PaymentReceived bool            `json:"paymentReceived"`
	Name            string          `json:"name,omitempty"`
}
