package workflow

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"retail-order-feed/backend"
)

// ReferenceData is the catalog the order-editing surface renders: the product
// list to pick items from and the existing customers, fetched together before
// editing starts.
type ReferenceData struct {
	Customers []backend.Customer
	Products  []backend.Product
}

// LoadReferenceData fetches customers and products for the editing surface.
func LoadReferenceData(ctx context.Context, api backend.Backend) (*ReferenceData, error) {
	customers, err := api.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	products, err := api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ReferenceData{Customers: customers, Products: products}, nil
}

// Phase is the placement workflow state.
type Phase string

const (
	PhaseEditing    Phase = "EDITING"
	PhaseSubmitting Phase = "SUBMITTING"
	PhaseSucceeded  Phase = "SUCCEEDED"
	PhaseFailed     Phase = "FAILED"
)

// PlacementDraft is the customer-entered order before submission.
type PlacementDraft struct {
	Customer        backend.CustomerDraft
	Items           []backend.LineItemDraft
	PaymentReceived bool
	OrderName       string
}

// PlacementWorkflow performs the two-step order creation: create the
// customer, then create the order referencing it. The two writes are not
// transactional; if order creation fails the customer persists, and the
// workflow holds on to its identifier so a retry with unchanged customer
// fields reuses it instead of duplicating the record.
type PlacementWorkflow struct {
	api    backend.Backend
	logger *zap.Logger

	mu            sync.Mutex
	phase         Phase
	orderID       string
	customerID    string
	customerDraft backend.CustomerDraft
}

// NewPlacementWorkflow creates a placement workflow in the Editing phase.
func NewPlacementWorkflow(api backend.Backend, logger *zap.Logger) *PlacementWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementWorkflow{
		api:    api,
		logger: logger,
		phase:  PhaseEditing,
	}
}

// Submit validates the draft and drives the creation sequence. On any
// failure the workflow returns to a re-submittable state; on success it
// exposes the new order identifier for tracking.
func (w *PlacementWorkflow) Submit(ctx context.Context, draft PlacementDraft) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase == PhaseSubmitting {
		return "", &ValidationError{Reason: "a submission is already in flight"}
	}

	items := itemsWithQuantity(draft.Items)
	if reason := validateDraft(draft.Customer, items); reason != "" {
		w.phase = PhaseEditing
		return "", &ValidationError{Reason: reason}
	}

	w.phase = PhaseSubmitting

	customerID, err := w.ensureCustomer(ctx, draft.Customer)
	if err != nil {
		w.phase = PhaseFailed
		w.logger.Warn("customer creation failed", zap.Error(err))
		return "", &PlacementError{Stage: "customer", Err: err}
	}

	order, err := w.api.CreateOrder(ctx, backend.OrderDraft{
		CustomerID:      customerID,
		Items:           items,
		PaymentReceived: draft.PaymentReceived,
		Name:            draft.OrderName,
	})
	if err != nil {
		// The customer record persists on the backend; its ID stays cached
		// so the next Submit with the same customer fields skips re-creation.
		w.phase = PhaseFailed
		w.logger.Warn("order creation failed, customer retained for retry",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return "", &PlacementError{Stage: "order", Err: err}
	}

	w.phase = PhaseSucceeded
	w.orderID = order.ID
	w.customerID = ""
	w.customerDraft = backend.CustomerDraft{}

	w.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", customerID))
	return order.ID, nil
}

// Phase returns the current workflow phase.
func (w *PlacementWorkflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// OrderID returns the identifier of the last successfully placed order.
func (w *PlacementWorkflow) OrderID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.orderID
}

// Edit returns the workflow to the Editing phase after a terminal state.
func (w *PlacementWorkflow) Edit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseSubmitting {
		w.phase = PhaseEditing
	}
}

// ensureCustomer creates the customer, or reuses the one created by a prior
// failed attempt when the draft fields are unchanged.
func (w *PlacementWorkflow) ensureCustomer(ctx context.Context, draft backend.CustomerDraft) (string, error) {
	if w.customerID != "" && w.customerDraft == draft {
		w.logger.Debug("reusing customer from previous attempt",
			zap.String("customer_id", w.customerID))
		return w.customerID, nil
	}

	customer, err := w.api.CreateCustomer(ctx, draft)
	if err != nil {
		return "", err
	}
	w.customerID = customer.ID
	w.customerDraft = draft
	return customer.ID, nil
}

func itemsWithQuantity(items []backend.LineItemDraft) []backend.LineItemDraft {
	kept := make([]backend.LineItemDraft, 0, len(items))
	for _, item := range items {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	return kept
}

func validateDraft(customer backend.CustomerDraft, items []backend.LineItemDraft) string {
	switch {
	case strings.TrimSpace(customer.Name) == "":
		return "customer name is required"
	case strings.TrimSpace(customer.Email) == "":
		return "customer email is required"
	case strings.TrimSpace(customer.Phone) == "":
		return "customer phone is required"
	case len(items) == 0:
		return "at least one item with quantity > 0 is required"
	}
	return ""
}
