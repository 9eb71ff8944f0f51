package models

import "time"

// Contact is an address-book entry. Phone numbers are unique across
// all contacts; the store enforces this.
type Contact struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}
