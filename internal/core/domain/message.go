package domain

import (
	"encoding/json"
	"time"
)

// OfflineMessage is a message left for a room whose intended recipient was
// not connected at send time. The payload is opaque to the server.
type OfflineMessage struct {
	From      string          `json:"from"`
	Message   json.RawMessage `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewOfflineMessage(from string, payload json.RawMessage, at time.Time) OfflineMessage {
	return OfflineMessage{
		From:      from,
		Message:   payload,
		Timestamp: at,
	}
}
