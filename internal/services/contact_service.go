package services

import (
	"context"
	"errors"

	"github.com/lalfaro-lab/sms-platform/internal/models"
	"github.com/lalfaro-lab/sms-platform/internal/store"
)

var (
	// ErrNameRequired indicates a missing or empty name field
	ErrNameRequired = errors.New("name is required")

	// ErrContactIDRequired indicates a delete call without an id
	ErrContactIDRequired = errors.New("contact id is required")
)

// ContactService is a thin validation layer over the store's contact
// operations.
type ContactService struct {
	store store.Store
}

// NewContactService creates a new contact service
func NewContactService(st store.Store) *ContactService {
	return &ContactService{store: st}
}

// Create validates the input and inserts the contact. Duplicate phone
// numbers surface as store.ErrDuplicateContact.
func (s *ContactService) Create(ctx context.Context, name, phoneNumber string) (*models.Contact, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if phoneNumber == "" {
		return nil, ErrPhoneNumberRequired
	}

	return s.store.InsertContact(ctx, name, phoneNumber)
}

// List returns all contacts ordered by name.
func (s *ContactService) List(ctx context.Context) ([]*models.Contact, error) {
	return s.store.ListContacts(ctx)
}

// Delete removes the contact with the given id. A missing record
// surfaces as store.ErrContactNotFound.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrContactIDRequired
	}

	return s.store.DeleteContact(ctx, id)
}
