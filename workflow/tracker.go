package workflow

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"retail-order-feed/backend"
)

// Tracker resolves a single order by identifier for the customer-facing
// tracking view.
type Tracker struct {
	api    backend.Backend
	logger *zap.Logger
}

// NewTracker creates a tracker over the given backend.
func NewTracker(api backend.Backend, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{api: api, logger: logger}
}

// FindOrder looks an order up by identifier. It asks the backend's direct
// single-order endpoint first and falls back to scanning the full order list
// when the backend does not expose one.
//
// A genuine miss returns (nil, nil). A failed query returns (nil,
// *LookupError): callers present it the same as not-found, but the failure
// stays visible in diagnostics.
func (t *Tracker) FindOrder(ctx context.Context, orderID string) (*backend.Order, error) {
	if orderID == "" {
		return nil, nil
	}

	order, err := t.api.GetOrder(ctx, orderID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, backend.ErrNoDirectLookup) {
		t.logger.Warn("order lookup failed",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, &LookupError{OrderID: orderID, Err: err}
	}

	orders, err := t.api.ListOrders(ctx)
	if err != nil {
		t.logger.Warn("order list fetch for lookup failed",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, &LookupError{OrderID: orderID, Err: err}
	}
	for i := range orders {
		if orders[i].ID == orderID {
			return &orders[i], nil
		}
	}
	return nil, nil
}
