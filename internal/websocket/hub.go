package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MorMundHS-MA/GDV/internal/infrastructure"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/events"
)

// broadcastBuffer bounds the messages queued for the run loop. Broadcast
// drops instead of blocking once it is full.
const broadcastBuffer = 64

// CommandHandler reacts to a command sent by a client. A returned error is
// reported back to that client only.
type CommandHandler func(ctx context.Context, cmd Command) error

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	count      atomic.Int64

	version  string
	commands CommandHandler
	metrics  *infrastructure.Metrics
	logger   *slog.Logger
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithCommandHandler routes client commands to fn
func WithCommandHandler(fn CommandHandler) HubOption {
	return func(h *Hub) { h.commands = fn }
}

// WithHubMetrics records the client gauge on m
func WithHubMetrics(m *infrastructure.Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// NewHub creates a hub. version is sent to every client on connect.
func NewHub(version string, logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		version:    version,
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start runs the hub loop in a goroutine
func (h *Hub) Start(ctx context.Context) {
	go h.Run(ctx)
}

// Stop ends the run loop. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Run processes registrations and broadcasts until ctx is done or Stop is
// called. Remaining clients are disconnected on exit.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("websocket hub started")
	defer func() {
		for c := range h.clients {
			h.drop(ctx, c)
		}
		h.logger.Info("websocket hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			h.Stop()
			return
		case <-h.done:
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Add(1)
			h.metrics.RecordClients(ctx, 1)
			h.logger.Info("client connected",
				slog.String("client_id", c.id),
				slog.String("remote_addr", c.remoteAddr),
				slog.Int("total_clients", len(h.clients)))
			c.enqueue(h.encode(events.NewMessage(events.MessageTypeConnect,
				events.ConnectInfo{ClientID: c.id, Version: h.version})))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(ctx, c)
				h.logger.Info("client disconnected",
					slog.String("client_id", c.id),
					slog.Int("total_clients", len(h.clients)))
			}

		case data := <-h.broadcast:
			for c := range h.clients {
				if !c.enqueue(data) {
					h.logger.Warn("client send buffer full, disconnecting",
						slog.String("client_id", c.id))
					h.drop(ctx, c)
				}
			}
		}
	}
}

// drop removes c and closes its send channel, which ends its write pump
func (h *Hub) drop(ctx context.Context, c *Client) {
	delete(h.clients, c)
	c.close()
	h.count.Add(-1)
	h.metrics.RecordClients(ctx, -1)
}

// Register adds a client. It returns false when the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues msg for every connected client. Messages are dropped
// when the queue is full or the hub has stopped.
func (h *Hub) Broadcast(msg events.WebSocketMessage) {
	data := h.encode(msg)
	if data == nil {
		return
	}
	select {
	case <-h.done:
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast queue full, message dropped",
			slog.String("type", string(msg.Type)))
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

func (h *Hub) encode(msg events.WebSocketMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode websocket message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return nil
	}
	return data
}

// handleCommand runs the command handler and reports failures to c
func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd Command) {
	if h.commands == nil {
		c.enqueue(h.encode(events.NewMessage(events.MessageTypeError,
			events.ErrorInfo{Code: "UNSUPPORTED", Message: "commands are not accepted"})))
		return
	}
	if err := h.commands(ctx, cmd); err != nil {
		h.logger.Debug("client command rejected",
			slog.String("client_id", c.id),
			slog.String("type", cmd.Type),
			slog.String("error", err.Error()))
		c.enqueue(h.encode(events.NewMessage(events.MessageTypeError,
			events.ErrorInfo{Code: "COMMAND_REJECTED", Message: err.Error()})))
	}
}
