// Package realtime subscribes to the backend's push channel and translates
// order change notifications into feed invalidations.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Listener defines the public interface of the invalidation listener.
type Listener interface {
	Start() error
	Stop() error
	Status() ConnectionStatus
}

// InvalidateFunc is called when the backend's order data has changed and the
// feed must be reloaded. Bursts of notifications are coalesced into one call.
type InvalidateFunc func()

// The two named notification channels. Events carry no payload contract;
// their presence is the signal.
const (
	EventOrderCreated = "order-created"
	EventOrderUpdated = "order-updated"
)

// Config holds configuration for the invalidation listener.
type Config struct {
	URL               string        // Backend websocket URL
	ReconnectInterval time.Duration // Reconnection delay
	HeartbeatInterval time.Duration // Ping interval
	MaxReconnects     int           // Maximum reconnection attempts
	Debounce          time.Duration // Trailing-edge coalescing window
	EnableLogging     bool          // Detailed logging
}

// DefaultConfig provides a default configuration for the listener.
var DefaultConfig = Config{
	ReconnectInterval: 5 * time.Second,
	HeartbeatInterval: 20 * time.Second,
	MaxReconnects:     10,
	Debounce:          250 * time.Millisecond,
	EnableLogging:     true,
}

// subscribeMessage asks the backend to deliver the named events.
type subscribeMessage struct {
	Method string   `json:"method"`
	Events []string `json:"events"`
}

// eventMessage is the envelope of a delivered notification. Data is optional
// and ignored; payload-free events are valid.
type eventMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ConnectionStatus provides information about the websocket connection.
type ConnectionStatus struct {
	IsConnected    bool
	ReconnectCount int
	EventCount     int64
	LastEvent      time.Time
	ErrorCount     int64
}

type listener struct {
	config     Config
	invalidate InvalidateFunc

	conn              *websocket.Conn
	isConnected       bool
	reconnectAttempts int
	connMu            sync.RWMutex
	dialer            *websocket.Dialer

	status   ConnectionStatus
	statusMu sync.RWMutex

	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *log.Logger
}

// NewListener creates an invalidation listener that calls invalidate when
// order data changes on the backend.
func NewListener(config Config, invalidate InvalidateFunc) (Listener, error) {
	if config.URL == "" {
		return nil, errors.New("realtime: websocket URL is required")
	}
	if invalidate == nil {
		return nil, errors.New("realtime: invalidate function is required")
	}
	if config.ReconnectInterval <= 0 {
		config.ReconnectInterval = DefaultConfig.ReconnectInterval
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = DefaultConfig.HeartbeatInterval
	}
	if config.MaxReconnects <= 0 {
		config.MaxReconnects = DefaultConfig.MaxReconnects
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultConfig.Debounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &listener{
		config:     config,
		invalidate: invalidate,
		ctx:        ctx,
		cancel:     cancel,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		},
	}
	if config.EnableLogging {
		l.logger = log.New(log.Writer(), "[Realtime] ", log.LstdFlags|log.Lshortfile)
	}
	return l, nil
}

// Start connects, subscribes to both notification channels, and begins
// listening.
func (l *listener) Start() error {
	l.log("Starting invalidation listener...")

	if err := l.connect(); err != nil {
		return fmt.Errorf("failed to establish websocket connection: %w", err)
	}
	if err := l.subscribe(); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	l.wg.Add(2)
	go l.readLoop()
	go l.heartbeat()

	l.updateStatus(func(status *ConnectionStatus) {
		status.IsConnected = true
	})

	l.log("Invalidation listener started")
	return nil
}

// Stop unsubscribes from the backend by tearing the connection down. No
// invalidations fire after Stop returns; a pending debounced one is
// cancelled.
func (l *listener) Stop() error {
	l.log("Stopping invalidation listener...")

	l.cancel()

	l.debounceMu.Lock()
	if l.debounceTimer != nil {
		l.debounceTimer.Stop()
		l.debounceTimer = nil
	}
	l.debounceMu.Unlock()

	l.connMu.Lock()
	if l.conn != nil {
		l.conn.Close()
		l.isConnected = false
	}
	l.connMu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.log("Invalidation listener stopped")
		return nil
	case <-time.After(10 * time.Second):
		return errors.New("timeout waiting for goroutines to finish")
	}
}

// Status returns the current connection status.
func (l *listener) Status() ConnectionStatus {
	l.statusMu.RLock()
	defer l.statusMu.RUnlock()
	return l.status
}

func (l *listener) connect() error {
	l.connMu.Lock()
	defer l.connMu.Unlock()

	if l.isConnected {
		return nil
	}

	l.log("Connecting to backend websocket: %s", l.config.URL)
	conn, _, err := l.dialer.Dial(l.config.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial websocket: %w", err)
	}

	l.conn = conn
	l.isConnected = true
	l.log("Websocket connection established")
	return nil
}

func (l *listener) subscribe() error {
	msg := subscribeMessage{
		Method: "subscribe",
		Events: []string{EventOrderCreated, EventOrderUpdated},
	}
	return l.sendMessage(msg)
}

// sendMessage writes one message. Writers are serialized by the full lock;
// the websocket permits one concurrent reader and one concurrent writer.
func (l *listener) sendMessage(msg interface{}) error {
	l.connMu.Lock()
	defer l.connMu.Unlock()

	if !l.isConnected || l.conn == nil {
		return errors.New("websocket not connected")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := l.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// readLoop processes incoming websocket messages until the listener stops.
func (l *listener) readLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		default:
			l.connMu.RLock()
			conn := l.conn
			isConnected := l.isConnected
			l.connMu.RUnlock()

			if !isConnected || conn == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}

			conn.SetReadDeadline(time.Now().Add(3 * l.config.HeartbeatInterval))
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				if l.ctx.Err() != nil {
					return
				}
				l.log("Error reading message: %v", err)
				l.updateStatus(func(status *ConnectionStatus) {
					status.ErrorCount++
					status.IsConnected = false
				})
				if err := l.reconnect(); err != nil {
					l.log("Reconnection failed: %v", err)
					return
				}
				continue
			}

			if messageType == websocket.TextMessage {
				l.processMessage(data)
			}
		}
	}
}

// processMessage recognizes the two named events and schedules an
// invalidation. Unknown messages are logged and dropped.
func (l *listener) processMessage(data []byte) {
	event := ""
	var msg eventMessage
	if err := json.Unmarshal(data, &msg); err == nil && msg.Event != "" {
		event = msg.Event
	} else {
		// Some transports deliver the bare event name.
		event = strings.TrimSpace(string(data))
	}

	switch event {
	case EventOrderCreated, EventOrderUpdated:
		l.updateStatus(func(status *ConnectionStatus) {
			status.EventCount++
			status.LastEvent = time.Now()
		})
		l.scheduleInvalidation(event)
	default:
		l.log("Received unknown message: %s", string(data))
	}
}

// scheduleInvalidation coalesces notification bursts: every event restarts a
// trailing-edge debounce timer, and one invalidation fires when the burst
// goes quiet.
func (l *listener) scheduleInvalidation(event string) {
	l.log("Change notification received: %s", event)

	l.debounceMu.Lock()
	defer l.debounceMu.Unlock()

	if l.debounceTimer != nil {
		l.debounceTimer.Reset(l.config.Debounce)
		return
	}
	l.debounceTimer = time.AfterFunc(l.config.Debounce, func() {
		l.debounceMu.Lock()
		l.debounceTimer = nil
		l.debounceMu.Unlock()

		if l.ctx.Err() != nil {
			return
		}
		l.invalidate()
	})
}

// reconnect re-establishes the connection and re-subscribes.
func (l *listener) reconnect() error {
	l.connMu.Lock()

	for {
		if l.reconnectAttempts >= l.config.MaxReconnects {
			l.connMu.Unlock()
			return fmt.Errorf("maximum reconnection attempts reached (%d)", l.config.MaxReconnects)
		}

		l.log("Attempting reconnection (attempt %d/%d)", l.reconnectAttempts+1, l.config.MaxReconnects)

		if l.conn != nil {
			l.conn.Close()
			l.conn = nil
		}
		l.isConnected = false

		l.connMu.Unlock()
		select {
		case <-l.ctx.Done():
			return l.ctx.Err()
		case <-time.After(l.config.ReconnectInterval):
		}
		l.connMu.Lock()

		conn, _, err := l.dialer.Dial(l.config.URL, nil)
		if err != nil {
			l.reconnectAttempts++
			l.updateStatus(func(status *ConnectionStatus) {
				status.ReconnectCount++
				status.ErrorCount++
			})
			continue
		}

		l.conn = conn
		l.isConnected = true
		l.reconnectAttempts = 0
		l.connMu.Unlock()

		l.updateStatus(func(status *ConnectionStatus) {
			status.IsConnected = true
			status.ReconnectCount++
		})

		if err := l.subscribe(); err != nil {
			l.log("Failed to re-subscribe after reconnect: %v", err)
		}

		l.log("Reconnection successful")
		return nil
	}
}

// heartbeat keeps the connection alive with periodic pings.
func (l *listener) heartbeat() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			l.connMu.Lock()
			var err error
			if l.isConnected && l.conn != nil {
				err = l.conn.WriteMessage(websocket.PingMessage, []byte{})
			}
			l.connMu.Unlock()

			if err != nil {
				l.log("Failed to send ping: %v", err)
				l.updateStatus(func(status *ConnectionStatus) {
					status.ErrorCount++
				})
			}
		}
	}
}

func (l *listener) updateStatus(updater func(*ConnectionStatus)) {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()
	updater(&l.status)
}

func (l *listener) log(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
	}
}
