package workflow

import (
	"context"

	"go.uber.org/zap"

	"retail-order-feed/backend"
	"retail-order-feed/feed"
)

// TransitionCommand issues admin status changes. It never patches the feed
// locally: the order's sort position and any server-side side effects of the
// transition are unknowable here, so a confirmed write is followed by a full
// feed reset instead.
type TransitionCommand struct {
	api    backend.Backend
	feed   feed.Engine
	logger *zap.Logger
}

// NewTransitionCommand wires a transition command to the backend and the feed
// it reconciles.
func NewTransitionCommand(api backend.Backend, feedEngine feed.Engine, logger *zap.Logger) *TransitionCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitionCommand{
		api:    api,
		feed:   feedEngine,
		logger: logger,
	}
}

// SetStatus moves one order to newStatus. On backend failure the feed is left
// untouched and the previously loaded status stays displayed; on success the
// feed is reset exactly once to re-synchronize.
func (c *TransitionCommand) SetStatus(ctx context.Context, orderID string, newStatus backend.OrderStatus) error {
	if orderID == "" {
		return &ValidationError{Reason: "order identifier is required"}
	}
	if !newStatus.IsValid() {
		return &ValidationError{Reason: "unknown order status " + string(newStatus)}
	}

	if err := c.api.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		c.logger.Warn("status transition failed",
			zap.String("order_id", orderID),
			zap.String("status", string(newStatus)),
			zap.Error(err))
		return &TransitionError{OrderID: orderID, Err: err}
	}

	c.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("status", string(newStatus)))
	return c.feed.Reset(ctx)
}
