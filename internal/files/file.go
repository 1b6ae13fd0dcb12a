// Package files implements the tracked file domain for Tickler. It stores file
// metadata with effective and expiry dates, uploads file content to blob
// storage, and exposes the pending-expiry query and notified marker that the
// expiry scan relies on.
package files

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tickler/pkg/calendar"
)

// File is a tracked document. A nil ExpiryDate never becomes due.
// Notified flips to true once an expiry notification has been delivered.
type File struct {
	ID            uuid.UUID      `json:"id"`
	OwnerID       uuid.UUID      `json:"owner_id"`
	Name          string         `json:"name"`
	LocationURL   string         `json:"location_url"`
	StorageKey    *string        `json:"storage_key,omitempty"`
	EffectiveDate *calendar.Date `json:"effective_date"`
	ExpiryDate    *calendar.Date `json:"expiry_date"`
	Notified      bool           `json:"notified"`
	NotifiedAt    *time.Time     `json:"notified_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CreateCommand registers a file whose content already lives at LocationURL.
type CreateCommand struct {
	OwnerID       uuid.UUID      `json:"owner_id"`
	Name          string         `json:"name"`
	LocationURL   string         `json:"location_url"`
	EffectiveDate *calendar.Date `json:"effective_date"`
	ExpiryDate    *calendar.Date `json:"expiry_date"`
}

// UploadCommand carries file content to store in blob storage and register.
type UploadCommand struct {
	OwnerID       uuid.UUID
	Name          string
	ContentType   string
	Data          []byte
	EffectiveDate *calendar.Date
	ExpiryDate    *calendar.Date
}

// UpdateCommand replaces both dates of a file. It is not a partial update:
// a field omitted from the request body decodes to nil and clears the stored
// date to NULL, the same as an explicit null.
type UpdateCommand struct {
	EffectiveDate *calendar.Date `json:"effective_date"`
	ExpiryDate    *calendar.Date `json:"expiry_date"`
}
