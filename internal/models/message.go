package models

import "time"

// Message direction values. Direction doubles as the "type" column in
// the relational schema and the type filter on the listing endpoint.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// Message status values. Status is informational only; records are
// written once and never transition.
const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusReceived = "received"
)

// Message represents a single SMS record, outbound or inbound.
type Message struct {
	ID               string    `json:"id"`
	PhoneNumber      string    `json:"phone_number"`
	Body             string    `json:"message"`
	Status           string    `json:"status"`
	Direction        string    `json:"type"`
	GatewayMessageID *string   `json:"gateway_message_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
