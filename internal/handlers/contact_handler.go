package handlers

import (
	"errors"
	"net/http"

	"github.com/lalfaro-lab/sms-platform/internal/models"
	"github.com/lalfaro-lab/sms-platform/internal/store"
	"github.com/lalfaro-lab/sms-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContactHandler handles contact management requests
type ContactHandler struct {
	contacts ContactServiceInterface
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contacts ContactServiceInterface) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// CreateContactRequest is the POST /api/contacts body
type CreateContactRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

// CreateContact handles contact creation (POST /api/contacts)
// A duplicate phone number is rejected with a 400, matching the
// uniqueness invariant.
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid contact request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Name == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}
	if req.PhoneNumber == "" {
		respondError(c, http.StatusBadRequest, "phoneNumber is required")
		return
	}

	contact, err := h.contacts.Create(c.Request.Context(), req.Name, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateContact) {
			respondError(c, http.StatusBadRequest, store.ErrDuplicateContact.Error())
			return
		}
		logger.Error("Failed to create contact",
			zap.String("phone_number", req.PhoneNumber),
			zap.Error(err),
		)
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("Contact created",
		zap.String("contact_id", contact.ID),
		zap.String("name", contact.Name),
	)

	respondData(c, gin.H{
		"id":          contact.ID,
		"name":        contact.Name,
		"phoneNumber": contact.PhoneNumber,
	})
}

// ListContacts handles the contact listing endpoint (GET /api/contacts)
func (h *ContactHandler) ListContacts(c *gin.Context) {
	contacts, err := h.contacts.List(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list contacts", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if contacts == nil {
		contacts = []*models.Contact{}
	}
	respondData(c, contacts)
}

// DeleteContact handles contact deletion (DELETE /api/contacts/:id)
// Deleting an unknown id reports 404; the operation is idempotent in
// the sense that a second delete of the same id also reports 404.
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "contact id is required")
		return
	}

	if err := h.contacts.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrContactNotFound) {
			respondError(c, http.StatusNotFound, "Contact not found")
			return
		}
		logger.Error("Failed to delete contact",
			zap.String("contact_id", id),
			zap.Error(err),
		)
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("Contact deleted", zap.String("contact_id", id))
	respondSuccess(c)
}
