package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lalfaro-lab/sms-platform/internal/gateway"
	"github.com/lalfaro-lab/sms-platform/internal/models"
	"github.com/lalfaro-lab/sms-platform/internal/store"
	"github.com/lalfaro-lab/sms-platform/pkg/logger"

	"go.uber.org/zap"
)

const (
	// MaxListLimit caps the limit query parameter on message listings
	MaxListLimit = 500

	// ReceivedEvent is the webhook event tag for inbound SMS
	ReceivedEvent = "sms:received"
)

var (
	// ErrPhoneNumberRequired indicates a missing or empty phoneNumber field
	ErrPhoneNumberRequired = errors.New("phoneNumber is required")

	// ErrMessageRequired indicates a missing or empty message field
	ErrMessageRequired = errors.New("message is required")

	// ErrEventRequired indicates a webhook call without an event tag
	ErrEventRequired = errors.New("event is required")
)

// GatewaySender is the outbound SMS contract consumed by the service.
// Implemented by gateway.Client; mocked in tests.
type GatewaySender interface {
	Send(ctx context.Context, phoneNumber, body string) (*gateway.SendResult, error)
}

// SendReceipt is the outcome of a successful send: the stored message
// id and the gateway's raw response.
type SendReceipt struct {
	ID              string          `json:"id"`
	GatewayResponse json.RawMessage `json:"gatewayResponse"`
}

// Stats aggregates the dashboard counters.
type Stats struct {
	TotalSent     int `json:"total_sent"`
	TotalReceived int `json:"total_received"`
	TodaySent     int `json:"today_sent"`
	TotalContacts int `json:"total_contacts"`
}

// MessageService owns the send flow, message listings, stats and
// webhook intake.
type MessageService struct {
	store   store.Store
	gateway GatewaySender
}

// NewMessageService creates a new message service
func NewMessageService(st store.Store, gw GatewaySender) *MessageService {
	return &MessageService{store: st, gateway: gw}
}

// Send validates the request, forwards it to the gateway and, only on
// gateway success, records the message. A failed gateway call leaves
// the store untouched.
func (s *MessageService) Send(ctx context.Context, phoneNumber, body string) (*SendReceipt, error) {
	if phoneNumber == "" {
		return nil, ErrPhoneNumberRequired
	}
	if body == "" {
		return nil, ErrMessageRequired
	}

	result, err := s.gateway.Send(ctx, phoneNumber, body)
	if err != nil {
		return nil, fmt.Errorf("gateway send failed: %w", err)
	}

	msg := &models.Message{
		PhoneNumber: phoneNumber,
		Body:        body,
		Status:      models.StatusSent,
		Direction:   models.DirectionSent,
	}
	if result.MessageID != "" {
		id := result.MessageID
		msg.GatewayMessageID = &id
	}

	msgID, err := s.store.InsertMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to record sent message: %w", err)
	}

	logger.Info("SMS sent",
		zap.String("message_id", msgID),
		zap.String("gateway_message_id", result.MessageID),
		zap.String("phone_number", phoneNumber),
	)

	return &SendReceipt{ID: msgID, GatewayResponse: result.Raw}, nil
}

// List returns messages newest first. The limit is clamped to
// MaxListLimit; non-positive limits fall back to the store default.
func (s *MessageService) List(ctx context.Context, direction string, limit int) ([]*models.Message, error) {
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.store.ListMessages(ctx, direction, limit)
}

// Stats computes the dashboard counters.
func (s *MessageService) Stats(ctx context.Context) (*Stats, error) {
	totalSent, err := s.store.CountMessages(ctx, models.DirectionSent, false)
	if err != nil {
		return nil, fmt.Errorf("failed to count sent messages: %w", err)
	}

	totalReceived, err := s.store.CountMessages(ctx, models.DirectionReceived, false)
	if err != nil {
		return nil, fmt.Errorf("failed to count received messages: %w", err)
	}

	todaySent, err := s.store.CountMessages(ctx, models.DirectionSent, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count today's messages: %w", err)
	}

	totalContacts, err := s.store.CountContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	return &Stats{
		TotalSent:     totalSent,
		TotalReceived: totalReceived,
		TodaySent:     todaySent,
		TotalContacts: totalContacts,
	}, nil
}

// inboundPayload covers the field names seen across gateway versions:
// the sender number arrives as phoneNumber or from, the provider id
// as messageId or id.
type inboundPayload struct {
	PhoneNumber string `json:"phoneNumber"`
	From        string `json:"from"`
	Message     string `json:"message"`
	MessageID   string `json:"messageId"`
	ID          string `json:"id"`
}

// HandleWebhook records the raw event, then for a recognized inbound
// SMS also records a received message. Failures in the second step
// are logged but do not fail the call; only a failure to persist the
// raw event is returned.
func (s *MessageService) HandleWebhook(ctx context.Context, event string, payload json.RawMessage) error {
	if event == "" {
		return ErrEventRequired
	}

	eventID, err := s.store.InsertWebhookEvent(ctx, event, payload)
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}

	logger.Info("Webhook received",
		zap.String("event_id", eventID),
		zap.String("event", event),
	)

	if event != ReceivedEvent || emptyPayload(payload) {
		return nil
	}

	var inbound inboundPayload
	if err := json.Unmarshal(payload, &inbound); err != nil {
		logger.Warn("Unparseable inbound SMS payload",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return nil
	}

	phone := inbound.PhoneNumber
	if phone == "" {
		phone = inbound.From
	}
	if phone == "" || inbound.Message == "" {
		logger.Warn("Inbound SMS payload missing sender or message",
			zap.String("event_id", eventID),
		)
		return nil
	}

	msg := &models.Message{
		PhoneNumber: phone,
		Body:        inbound.Message,
		Status:      models.StatusReceived,
		Direction:   models.DirectionReceived,
	}
	gatewayID := inbound.MessageID
	if gatewayID == "" {
		gatewayID = inbound.ID
	}
	if gatewayID != "" {
		msg.GatewayMessageID = &gatewayID
	}

	msgID, err := s.store.InsertMessage(ctx, msg)
	if err != nil {
		logger.Error("Failed to record inbound SMS",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return nil
	}

	logger.Info("Inbound SMS recorded",
		zap.String("message_id", msgID),
		zap.String("phone_number", phone),
	)

	return nil
}

func emptyPayload(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
