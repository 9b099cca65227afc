package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MorMundHS-MA/GDV/internal/config"
	"github.com/MorMundHS-MA/GDV/internal/infrastructure"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests and attaches the connection to a hub
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	timings  Timings
	logger   *slog.Logger
}

// NewHandler creates the /ws endpoint. Browser origins must appear in
// allowedOrigins unless it contains "*".
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		timings: TimingsFrom(cfg),
		logger:  hub.logger.With(slog.String("component", "websocket.handler")),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// the upgrader writes the error response itself
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(h.hub, wrapConn(ws), h.timings, infrastructure.GetTraceID(r.Context()))
	if !h.hub.Register(client) {
		ws.Close()
		return
	}

	// the request context ends when ServeHTTP returns
	ctx := context.WithoutCancel(r.Context())
	go client.WritePump()
	go client.ReadPump(ctx)
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(strings.ToLower(origin), "/")]
		return ok
	}
}
