// Package mocks provides testify mocks for the backend and feed contracts.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"retail-order-feed/backend"
	"retail-order-feed/feed"
)

type MockBackend struct {
	mock.Mock
}

var _ backend.Backend = (*MockBackend)(nil)

func (m *MockBackend) ListCustomers(ctx context.Context) ([]backend.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]backend.Customer), args.Error(1)
}

func (m *MockBackend) ListProducts(ctx context.Context) ([]backend.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]backend.Product), args.Error(1)
}

func (m *MockBackend) CreateCustomer(ctx context.Context, draft backend.CustomerDraft) (*backend.Customer, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Customer), args.Error(1)
}

func (m *MockBackend) ListOrdersPage(ctx context.Context, page, limit int) (*backend.OrderPage, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.OrderPage), args.Error(1)
}

func (m *MockBackend) ListOrders(ctx context.Context) ([]backend.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]backend.Order), args.Error(1)
}

func (m *MockBackend) GetOrder(ctx context.Context, id string) (*backend.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Order), args.Error(1)
}

func (m *MockBackend) CreateOrder(ctx context.Context, draft backend.OrderDraft) (*backend.Order, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Order), args.Error(1)
}

func (m *MockBackend) UpdateOrderStatus(ctx context.Context, id string, status backend.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockFeedEngine struct {
	mock.Mock
}

var _ feed.Engine = (*MockFeedEngine)(nil)

func (m *MockFeedEngine) LoadNextPage(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFeedEngine) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFeedEngine) Snapshot() []backend.Order {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]backend.Order)
}

func (m *MockFeedEngine) State() feed.State {
	args := m.Called()
	return args.Get(0).(feed.State)
}

func (m *MockFeedEngine) SetChangeCallback(callback feed.ChangeCallback) {
	m.Called(callback)
}
