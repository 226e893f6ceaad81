package feed

import (
	"strings"

	"retail-order-feed/backend"
)

// Filter narrows a loaded order snapshot by customer-name substring and
// status. It is pure: the input slice is never mutated and the result is a
// fresh slice, cheap enough to recompute on every keystroke. An empty
// nameSubstring and empty status make it the identity.
//
// The name match is case-insensitive. An order whose customer reference has
// not been resolved has no name and never matches a non-empty name filter.
func Filter(orders []backend.Order, nameSubstring string, status backend.OrderStatus) []backend.Order {
	needle := strings.ToLower(strings.TrimSpace(nameSubstring))

	filtered := make([]backend.Order, 0, len(orders))
	for _, order := range orders {
		if needle != "" && !strings.Contains(strings.ToLower(order.CustomerName()), needle) {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		filtered = append(filtered, order)
	}
	return filtered
}
