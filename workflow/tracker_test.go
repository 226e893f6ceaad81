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

func TestFindOrder_DirectLookupHit(t *testing.T) {
	api := new(mocks.MockBackend)
	api.On("GetOrder", mock.Anything, "o1").
		Return(&backend.Order{ID: "o1", Status: backend.StatusPaid}, nil).Once()

	tracker := workflow.NewTracker(api, nil)
	order, err := tracker.FindOrder(context.Background(), "o1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "o1", order.ID)
	api.AssertNotCalled(t, "ListOrders", mock.Anything)
}

func TestFindOrder_DirectLookupMiss(t *testing.T) {
	api := new(mocks.MockBackend)
	api.On("GetOrder", mock.Anything, "nonexistent-id").Return(nil, nil).Once()

	tracker := workflow.NewTracker(api, nil)
	order, err := tracker.FindOrder(context.Background(), "nonexistent-id")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestFindOrder_FallsBackToFullScan(t *testing.T) {
	api := new(mocks.MockBackend)
	api.On("GetOrder", mock.Anything, "o2").Return(nil, backend.ErrNoDirectLookup).Once()
	api.On("ListOrders", mock.Anything).Return([]backend.Order{
		{ID: "o1"}, {ID: "o2", Status: backend.StatusFulfilled}, {ID: "o3"},
	}, nil).Once()

	tracker := workflow.NewTracker(api, nil)
	order, err := tracker.FindOrder(context.Background(), "o2")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, backend.StatusFulfilled, order.Status)
}

func TestFindOrder_FullScanMiss(t *testing.T) {
	api := new(mocks.MockBackend)
	api.On("GetOrder", mock.Anything, "nonexistent-id").Return(nil, backend.ErrNoDirectLookup).Once()
	api.On("ListOrders", mock.Anything).Return([]backend.Order{{ID: "o1"}}, nil).Once()

	tracker := workflow.NewTracker(api, nil)
	order, err := tracker.FindOrder(context.Background(), "nonexistent-id")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestFindOrder_TransportFailureIsLookupError(t *testing.T) {
	api := new(mocks.MockBackend)
	api.On("GetOrder", mock.Anything, "o1").Return(nil, errors.New("connection refused")).Once()

	tracker := workflow.NewTracker(api, nil)
	order, err := tracker.FindOrder(context.Background(), "o1")

	assert.Nil(t, order, "a failed query presents as not-found")
	var lErr *workflow.LookupError
	require.ErrorAs(t, err, &lErr, "but remains distinguishable for diagnostics")
	assert.Equal(t, "o1", lErr.OrderID)

	var vErr *workflow.ValidationError
	assert.False(t, errors.As(err, &vErr))
}

func TestFindOrder_ListFailureIsLookupError(t *testing.T) {
	api := new(mocks.MockBackend)
	api.On("GetOrder", mock.Anything, "o1").Return(nil, backend.ErrNoDirectLookup).Once()
	api.On("ListOrders", mock.Anything).Return(nil, errors.New("timeout")).Once()

	tracker := workflow.NewTracker(api, nil)
	order, err := tracker.FindOrder(context.Background(), "o1")
	assert.Nil(t, order)
	var lErr *workflow.LookupError
	require.ErrorAs(t, err, &lErr)
}

func TestFindOrder_EmptyID(t *testing.T) {
	tracker := workflow.NewTracker(new(mocks.MockBackend), nil)
	order, err := tracker.FindOrder(context.Background(), "")
	assert.Nil(t, order)
	assert.NoError(t, err)
}
