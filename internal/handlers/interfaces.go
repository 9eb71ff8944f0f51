package handlers

import (
	"context"
	"encoding/json"

	"github.com/lalfaro-lab/sms-platform/internal/models"
	"github.com/lalfaro-lab/sms-platform/internal/services"
)

// MessageServiceInterface defines the contract for message operations
// This interface is used for dependency injection and testing
type MessageServiceInterface interface {
	Send(ctx context.Context, phoneNumber, body string) (*services.SendReceipt, error)
	List(ctx context.Context, direction string, limit int) ([]*models.Message, error)
	Stats(ctx context.Context) (*services.Stats, error)
	HandleWebhook(ctx context.Context, event string, payload json.RawMessage) error
}

// ContactServiceInterface defines the contract for contact operations
// This interface is used for dependency injection and testing
type ContactServiceInterface interface {
	Create(ctx context.Context, name, phoneNumber string) (*models.Contact, error)
	List(ctx context.Context) ([]*models.Contact, error)
	Delete(ctx context.Context, id string) error
}
