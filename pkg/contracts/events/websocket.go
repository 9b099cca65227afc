// Package events defines the messages pushed to WebSocket clients.
package events

import (
	"time"

	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeSnapshotFrame carries one animation frame
	MessageTypeSnapshotFrame MessageType = "snapshot.frame"
	// MessageTypeDatasetReloaded announces a freshly swapped dataset
	MessageTypeDatasetReloaded MessageType = "dataset.reloaded"

	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// NewMessage stamps a message of the given type
func NewMessage(t MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{Type: t, Timestamp: time.Now().UTC()},
		Data:        data,
	}
}

// SnapshotFrame is one year of the scatter animation. X is the chosen
// indicator, Y is GDP.
type SnapshotFrame struct {
	Year      string                `json:"year"`
	Indicator domain.Indicator      `json:"indicator"`
	Points    []domain.ScatterPoint `json:"points"`
	XLimit    domain.Limit          `json:"x_limit"`
	YLimit    domain.Limit          `json:"y_limit"`
	// Sequence increases by one per broadcast frame
	Sequence uint64 `json:"sequence"`
}

// DatasetReloaded summarizes a dataset swap
type DatasetReloaded struct {
	Fingerprint string    `json:"fingerprint"`
	Countries   int       `json:"countries"`
	Collisions  int       `json:"collisions"`
	LoadedAt    time.Time `json:"loaded_at"`
	Trigger     string    `json:"trigger"`
}

// ConnectInfo greets a newly connected client
type ConnectInfo struct {
	ClientID string `json:"client_id"`
	Version  string `json:"version"`
}

// ErrorInfo reports a failure to clients
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
