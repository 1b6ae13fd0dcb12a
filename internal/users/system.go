package users

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for user domain operations.
type System interface {
	Handler() *Handler

	Find(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, cmd CreateCommand) (*User, error)

	// ResolveEmail returns the notification address for an owner.
	// Returns ErrNotFound when the owner is unknown or has no address.
	ResolveEmail(ctx context.Context, id uuid.UUID) (string, error)
}
