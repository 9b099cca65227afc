package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/MorMundHS-MA/GDV/pkg/contracts/events"
	"github.com/gorilla/websocket"
)

// mockConn is an in-memory Connection. Reads block until a message is
// pushed or the connection is closed.
type mockConn struct {
	reads     chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written []written
	limit   int64
	pong    func(string) error
}

type written struct {
	kind int
	data []byte
}

func newMockConn() *mockConn {
	return &mockConn{reads: make(chan []byte, 16), closed: make(chan struct{})}
}

func (m *mockConn) push(msg string) { m.reads <- []byte(msg) }

func (m *mockConn) WriteMessage(kind int, data []byte) error {
	select {
	case <-m.closed:
		return websocket.ErrCloseSent
	default:
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, written{kind: kind, data: append([]byte(nil), data...)})
	return nil
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-m.reads:
		return websocket.TextMessage, msg, nil
	case <-m.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseGoingAway}
	}
}

func (m *mockConn) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *mockConn) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

func (m *mockConn) SetReadDeadline(time.Time) error  { return nil }
func (m *mockConn) SetWriteDeadline(time.Time) error { return nil }
func (m *mockConn) SetReadLimit(limit int64) {
	m.mu.Lock()
	m.limit = limit
	m.mu.Unlock()
}
func (m *mockConn) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	m.pong = h
	m.mu.Unlock()
}
func (m *mockConn) RemoteAddr() string { return "192.0.2.1:5000" }

// messages decodes every text frame written so far
func (m *mockConn) messages() []decodedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []decodedMessage
	for _, w := range m.written {
		if w.kind != websocket.TextMessage {
			continue
		}
		var msg decodedMessage
		if err := json.Unmarshal(w.data, &msg); err == nil {
			out = append(out, msg)
		}
	}
	return out
}

func (m *mockConn) ofType(t events.MessageType) []decodedMessage {
	var out []decodedMessage
	for _, msg := range m.messages() {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

func (m *mockConn) wroteClose() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.written {
		if w.kind == websocket.CloseMessage {
			return true
		}
	}
	return false
}

type decodedMessage struct {
	Type events.MessageType `json:"type"`
	Data json.RawMessage    `json:"data"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testTimings = Timings{PingPeriod: time.Hour, PongWait: 2 * time.Hour, WriteWait: time.Second}
