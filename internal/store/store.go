package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lalfaro-lab/sms-platform/internal/config"
	"github.com/lalfaro-lab/sms-platform/internal/models"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrDuplicateContact indicates the phone number is already registered
	ErrDuplicateContact = errors.New("phone number already exists in contacts")

	// ErrContactNotFound indicates the delete target does not exist
	ErrContactNotFound = errors.New("contact not found")
)

// Store is the persistence contract shared by the relational and the
// document backend. All methods are safe for concurrent use.
type Store interface {
	// InsertMessage appends a message record and returns its assigned id.
	// Messages carry no uniqueness constraint.
	InsertMessage(ctx context.Context, msg *models.Message) (string, error)

	// ListMessages returns messages newest first, at most limit records.
	// An empty direction disables filtering; limit <= 0 falls back to
	// the default of 50.
	ListMessages(ctx context.Context, direction string, limit int) ([]*models.Message, error)

	// CountMessages counts messages matching direction. With todayOnly
	// set, only records created since UTC midnight are counted.
	CountMessages(ctx context.Context, direction string, todayOnly bool) (int, error)

	// InsertContact creates a contact, failing with ErrDuplicateContact
	// when the phone number is taken. The check-and-insert is atomic.
	InsertContact(ctx context.Context, name, phoneNumber string) (*models.Contact, error)

	// ListContacts returns all contacts ordered by name ascending.
	ListContacts(ctx context.Context) ([]*models.Contact, error)

	// CountContacts returns the total number of contacts.
	CountContacts(ctx context.Context) (int, error)

	// DeleteContact removes the contact with the given id, failing with
	// ErrContactNotFound when no record matched.
	DeleteContact(ctx context.Context, id string) error

	// InsertWebhookEvent appends a raw gateway callback.
	InsertWebhookEvent(ctx context.Context, event string, payload json.RawMessage) (string, error)

	Close() error
}

// DefaultListLimit bounds ListMessages when the caller passes no limit.
const DefaultListLimit = 50

// Open builds the Store selected by cfg.Store.Driver. The backend is
// pinged before being returned; an unreachable backend fails startup.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.Store.DSN)
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisStore(client)
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}
