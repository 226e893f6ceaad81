package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"retail-order-feed/backend"
	"retail-order-feed/mocks"
	"retail-order-feed/workflow"
)

func TestSetStatus_SuccessTriggersExactlyOneReset(t *testing.T) {
	api := new(mocks.MockBackend)
	api.On("UpdateOrderStatus", mock.Anything, "o1", backend.StatusPaid).Return(nil).Once()

	feedEngine := new(mocks.MockFeedEngine)
	feedEngine.On("Reset", mock.Anything).Return(nil).Once()

	cmd := workflow.NewTransitionCommand(api, feedEngine, nil)
	require.NoError(t, cmd.SetStatus(context.Background(), "o1", backend.StatusPaid))

	api.AssertExpectations(t)
	feedEngine.AssertExpectations(t)
	feedEngine.AssertNumberOfCalls(t, "Reset", 1)
}

func TestSetStatus_FailureTriggersZeroResets(t *testing.T) {
	api := new(mocks.MockBackend)
	api.On("UpdateOrderStatus", mock.Anything, "o1", backend.StatusFulfilled).
		Return(errors.New("409")).Once()

	feedEngine := new(mocks.MockFeedEngine)

	cmd := workflow.NewTransitionCommand(api, feedEngine, nil)
	err := cmd.SetStatus(context.Background(), "o1", backend.StatusFulfilled)

	var tErr *workflow.TransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "o1", tErr.OrderID)
	feedEngine.AssertNotCalled(t, "Reset", mock.Anything)
}

func TestSetStatus_InvalidStatusSendsNothing(t *testing.T) {
	api := new(mocks.MockBackend)
	feedEngine := new(mocks.MockFeedEngine)

	cmd := workflow.NewTransitionCommand(api, feedEngine, nil)
	err := cmd.SetStatus(context.Background(), "o1", backend.OrderStatus("SHIPPED"))

	var vErr *workflow.ValidationError
	require.ErrorAs(t, err, &vErr)
	api.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
	feedEngine.AssertNotCalled(t, "Reset", mock.Anything)
}

func TestSetStatus_EmptyOrderID(t *testing.T) {
	cmd := workflow.NewTransitionCommand(new(mocks.MockBackend), new(mocks.MockFeedEngine), nil)
	err := cmd.SetStatus(context.Background(), "", backend.StatusPaid)

	var vErr *workflow.ValidationError
	require.ErrorAs(t, err, &vErr)
}
