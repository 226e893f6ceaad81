// Package feed maintains the admin's paginated, append-only in-memory view of
// orders and keeps it consistent with a backend that other actors mutate.
package feed

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"retail-order-feed/backend"
)

// Engine defines the public interface of the order feed.
type Engine interface {
	LoadNextPage(ctx context.Context) error
	Reset(ctx context.Context) error
	Snapshot() []backend.Order
	State() State
	SetChangeCallback(callback ChangeCallback)
}

// ChangeCallback is invoked after every successful feed mutation with a
// snapshot of the loaded orders. The slice is a copy; a later reset does not
// invalidate it.
type ChangeCallback func(orders []backend.Order)

// State is an immutable view of the feed's bookkeeping.
type State struct {
	Loaded     int
	Cursor     int
	Exhausted  bool
	Loading    bool
	Generation uint64
}

// LoadError is a failed page fetch. The feed's cursor and exhaustion state
// are untouched; retry is the next load or reset.
type LoadError struct {
	Page int
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("feed: loading page %d: %v", e.Page, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Config holds configuration for the feed engine.
type Config struct {
	PageSize int
	Logger   *zap.Logger
}

// DefaultConfig provides a default configuration for the feed engine.
var DefaultConfig = Config{
	PageSize: 10,
}

type engine struct {
	api      backend.Backend
	pageSize int
	logger   *zap.Logger

	mu         sync.Mutex
	orders     []backend.Order
	cursor     int // pages successfully loaded since the last reset
	exhausted  bool
	loading    bool
	generation uint64

	callback ChangeCallback
}

// NewEngine creates a feed engine over the given backend.
func NewEngine(api backend.Backend, config Config) Engine {
	if config.PageSize <= 0 {
		config.PageSize = DefaultConfig.PageSize
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &engine{
		api:      api,
		pageSize: config.PageSize,
		logger:   config.Logger,
	}
}

// LoadNextPage fetches the page after the current cursor and appends it.
// It is a no-op while a load is in flight or once the feed is exhausted, so
// redundant scroll signals are harmless. Only the generation current at issue
// time may mutate state when the response arrives; stale responses left over
// from before a reset are discarded.
func (e *engine) LoadNextPage(ctx context.Context) error {
	e.mu.Lock()
	if e.loading {
		e.mu.Unlock()
		return nil
	}
	if e.exhausted && e.cursor > 0 {
		e.mu.Unlock()
		return nil
	}
	e.loading = true
	page := e.cursor + 1
	gen := e.generation
	e.mu.Unlock()

	result, err := e.api.ListOrdersPage(ctx, page, e.pageSize)

	e.mu.Lock()
	if gen != e.generation {
		// A reset happened while this request was in flight. Its state,
		// including the loading flag, belongs to the new generation now.
		e.mu.Unlock()
		e.logger.Debug("discarding stale page response",
			zap.Int("page", page),
			zap.Uint64("generation", gen))
		return nil
	}
	e.loading = false
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn("feed page load failed", zap.Int("page", page), zap.Error(err))
		return &LoadError{Page: page, Err: err}
	}

	e.orders = append(e.orders, result.Orders...)
	e.cursor = page
	e.exhausted = result.Exhausted()
	snapshot := e.snapshotLocked()
	callback := e.callback
	e.mu.Unlock()

	e.logger.Debug("feed page loaded",
		zap.Int("page", page),
		zap.Int("returned", len(result.Orders)),
		zap.Bool("exhausted", result.Exhausted()))

	if callback != nil {
		callback(snapshot)
	}
	return nil
}

// Reset discards the feed, bumps the generation so in-flight responses are
// orphaned, and reloads page one.
func (e *engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	e.generation++
	e.orders = nil
	e.cursor = 0
	e.exhausted = false
	e.loading = false
	callback := e.callback
	e.mu.Unlock()

	e.logger.Debug("feed reset")
	if callback != nil {
		callback(nil)
	}
	return e.LoadNextPage(ctx)
}

// Snapshot returns a copy of the loaded orders. Downstream consumers filter
// and export this copy; they never see the engine's own slice.
func (e *engine) Snapshot() []backend.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// State returns the current feed bookkeeping.
func (e *engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Loaded:     len(e.orders),
		Cursor:     e.cursor,
		Exhausted:  e.exhausted,
		Loading:    e.loading,
		Generation: e.generation,
	}
}

// SetChangeCallback registers the function invoked after feed mutations.
func (e *engine) SetChangeCallback(callback ChangeCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callback = callback
}

func (e *engine) snapshotLocked() []backend.Order {
	snapshot := make([]backend.Order, len(e.orders))
	copy(snapshot, e.orders)
	return snapshot
}
