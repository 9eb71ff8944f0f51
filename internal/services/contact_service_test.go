package services

import (
	"context"
	"errors"
	"testing"

	"github.com/lalfaro-lab/sms-platform/internal/models"
	"github.com/lalfaro-lab/sms-platform/internal/store"
)

func TestContactService_Create(t *testing.T) {
	t.Run("valid contact", func(t *testing.T) {
		st := &mockStore{
			insertContactFunc: func(_ context.Context, name, phone string) (*models.Contact, error) {
				return &models.Contact{ID: "c1", Name: name, PhoneNumber: phone}, nil
			},
		}

		svc := NewContactService(st)
		contact, err := svc.Create(context.Background(), "Alice", "+15550001")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if contact.ID != "c1" || contact.Name != "Alice" {
			t.Errorf("Create() = %+v", contact)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		svc := NewContactService(&mockStore{})
		_, err := svc.Create(context.Background(), "", "+15550001")
		if !errors.Is(err, ErrNameRequired) {
			t.Errorf("Create() error = %v, want %v", err, ErrNameRequired)
		}
	})

	t.Run("missing phone number", func(t *testing.T) {
		svc := NewContactService(&mockStore{})
		_, err := svc.Create(context.Background(), "Alice", "")
		if !errors.Is(err, ErrPhoneNumberRequired) {
			t.Errorf("Create() error = %v, want %v", err, ErrPhoneNumberRequired)
		}
	})

	t.Run("duplicate phone number passes through", func(t *testing.T) {
		st := &mockStore{
			insertContactFunc: func(_ context.Context, _, _ string) (*models.Contact, error) {
				return nil, store.ErrDuplicateContact
			},
		}

		svc := NewContactService(st)
		_, err := svc.Create(context.Background(), "Alice", "+15550001")
		if !errors.Is(err, store.ErrDuplicateContact) {
			t.Errorf("Create() error = %v, want %v", err, store.ErrDuplicateContact)
		}
	})
}

func TestContactService_Delete(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		svc := NewContactService(&mockStore{})
		err := svc.Delete(context.Background(), "")
		if !errors.Is(err, ErrContactIDRequired) {
			t.Errorf("Delete() error = %v, want %v", err, ErrContactIDRequired)
		}
	})

	t.Run("not found passes through", func(t *testing.T) {
		st := &mockStore{
			deleteContactFunc: func(_ context.Context, _ string) error {
				return store.ErrContactNotFound
			},
		}

		svc := NewContactService(st)
		err := svc.Delete(context.Background(), "missing")
		if !errors.Is(err, store.ErrContactNotFound) {
			t.Errorf("Delete() error = %v, want %v", err, store.ErrContactNotFound)
		}
	})

	t.Run("delete succeeds", func(t *testing.T) {
		var gotID string
		st := &mockStore{
			deleteContactFunc: func(_ context.Context, id string) error {
				gotID = id
				return nil
			},
		}

		svc := NewContactService(st)
		if err := svc.Delete(context.Background(), "c1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if gotID != "c1" {
			t.Errorf("deleted id = %q, want c1", gotID)
		}
	})
}

func TestContactService_List(t *testing.T) {
	st := &mockStore{
		listContactsFunc: func(_ context.Context) ([]*models.Contact, error) {
			return []*models.Contact{{ID: "c1", Name: "Alice"}}, nil
		},
	}

	svc := NewContactService(st)
	contacts, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(contacts) != 1 || contacts[0].Name != "Alice" {
		t.Errorf("List() = %+v", contacts)
	}
}
