// Package users implements the document owner domain: registration and
// resolving an owner id to a notification email address.
package users

import (
	"time"

	"github.com/google/uuid"
)

// User is a document owner reachable by email.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommand carries the data needed to register a user.
type CreateCommand struct {
	Email string `json:"email"`
}
