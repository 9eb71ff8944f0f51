package models

import (
	"encoding/json"
	"time"
)

// WebhookEvent records a gateway callback verbatim. Events are
// append-only and never mutated.
type WebhookEvent struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}
