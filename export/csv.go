// Package export serializes a filtered order view into a CSV document.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"retail-order-feed/backend"
)

// Header is the fixed CSV column order.
var Header = []string{"Order ID", "Order Name", "Customer Name", "Status", "Payment", "Items"}

// WriteCSV writes the given orders as UTF-8, comma-delimited CSV. Fields
// containing delimiters, quotes, or line breaks are quoted per RFC 4180.
// It serializes exactly the slice it is given — the currently filtered,
// currently loaded subset — and never fetches more pages to complete an
// export.
func WriteCSV(w io.Writer, orders []backend.Order) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}
	for _, order := range orders {
		if err := writer.Write(row(order)); err != nil {
			return fmt.Errorf("export: writing order %s: %w", order.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("export: flushing: %w", err)
	}
	return nil
}

// ToCSV renders the orders to an in-memory CSV payload.
func ToCSV(orders []backend.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, orders); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func row(order backend.Order) []string {
	payment := "No"
	if order.PaymentReceived {
		payment = "Yes"
	}
	return []string{
		order.ID,
		order.Name,
		order.CustomerName(),
		string(order.Status),
		payment,
		joinItems(order.Items),
	}
}

func joinItems(items []backend.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x %d", item.Product.Name, item.Quantity))
	}
	return strings.Join(parts, "; ")
}
