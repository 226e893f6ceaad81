package realtime_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-order-feed/realtime"
)

type fakeBackendWS struct {
	server    *httptest.Server
	upgrader  websocket.Upgrader
	conns     chan *websocket.Conn
	subscribe chan []string
}

func newFakeBackendWS(t *testing.T) *fakeBackendWS {
	t.Helper()
	f := &fakeBackendWS{
		conns:     make(chan *websocket.Conn, 4),
		subscribe: make(chan []string, 4),
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := f.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- conn

		// First inbound message is the subscription.
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Method string   `json:"method"`
			Events []string `json:"events"`
		}
		if json.Unmarshal(data, &msg) == nil {
			f.subscribe <- msg.Events
		}

		// Keep reading so pings are serviced.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBackendWS) url() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *fakeBackendWS) emit(t *testing.T, payload string) {
	t.Helper()
	select {
	case conn := <-f.conns:
		f.conns <- conn
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
	case <-time.After(2 * time.Second):
		t.Fatal("no websocket connection established")
	}
}

func startListener(t *testing.T, ws *fakeBackendWS, debounce time.Duration, invalidations *atomic.Int64) realtime.Listener {
	t.Helper()
	listener, err := realtime.NewListener(realtime.Config{
		URL:           ws.url(),
		Debounce:      debounce,
		EnableLogging: false,
	}, func() {
		invalidations.Add(1)
	})
	require.NoError(t, err)
	require.NoError(t, listener.Start())
	t.Cleanup(func() { listener.Stop() })
	return listener
}

func TestListener_SubscribesToBothChannels(t *testing.T) {
	ws := newFakeBackendWS(t)
	var invalidations atomic.Int64
	startListener(t, ws, 50*time.Millisecond, &invalidations)

	select {
	case events := <-ws.subscribe:
		assert.ElementsMatch(t, []string{realtime.EventOrderCreated, realtime.EventOrderUpdated}, events)
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription received")
	}
}

func TestListener_CoalescesBurstsIntoOneInvalidation(t *testing.T) {
	ws := newFakeBackendWS(t)
	var invalidations atomic.Int64
	listener := startListener(t, ws, 100*time.Millisecond, &invalidations)

	ws.emit(t, `{"event":"order-updated"}`)
	ws.emit(t, `{"event":"order-created"}`)
	ws.emit(t, `{"event":"order-updated"}`)

	assert.Eventually(t, func() bool {
		return invalidations.Load() == 1
	}, 2*time.Second, 10*time.Millisecond, "a burst coalesces into exactly one reset")

	// Quiet period, then another event produces a second invalidation.
	time.Sleep(150 * time.Millisecond)
	ws.emit(t, `{"event":"order-updated"}`)
	assert.Eventually(t, func() bool {
		return invalidations.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return listener.Status().EventCount == 4
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListener_ToleratesPayloadFreeEvents(t *testing.T) {
	ws := newFakeBackendWS(t)
	var invalidations atomic.Int64
	startListener(t, ws, 50*time.Millisecond, &invalidations)

	// Bare event name, no JSON envelope, no payload.
	ws.emit(t, "order-created")

	assert.Eventually(t, func() bool {
		return invalidations.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListener_IgnoresUnknownEvents(t *testing.T) {
	ws := newFakeBackendWS(t)
	var invalidations atomic.Int64
	listener := startListener(t, ws, 50*time.Millisecond, &invalidations)

	ws.emit(t, `{"event":"customer-updated"}`)
	ws.emit(t, `not json at all`)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int64(0), invalidations.Load())
	assert.Equal(t, int64(0), listener.Status().EventCount)
}

func TestListener_StopCancelsPendingInvalidation(t *testing.T) {
	ws := newFakeBackendWS(t)
	var invalidations atomic.Int64
	listener := startListener(t, ws, 300*time.Millisecond, &invalidations)

	ws.emit(t, `{"event":"order-updated"}`)
	// Stop before the debounce window elapses.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, listener.Stop())

	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int64(0), invalidations.Load(), "no invalidation may fire after teardown")
}
