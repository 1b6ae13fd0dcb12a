package files

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/tickler/pkg/calendar"
	"github.com/JaimeStill/tickler/pkg/pagination"
)

// System defines the public contract for file domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[File], error)

	Find(ctx context.Context, id uuid.UUID) (*File, error)
	Create(ctx context.Context, cmd CreateCommand) (*File, error)
	Upload(ctx context.Context, cmd UploadCommand) (*File, error)

	// UpdateDates replaces both dates. Changing the expiry date to a
	// different value clears the notified state so the file is scanned again.
	UpdateDates(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*File, error)

	// Delete removes the file record and any blob uploaded for it.
	Delete(ctx context.Context, id uuid.UUID) error

	// QueryExpiringUnnotified returns files not yet notified whose expiry date
	// falls within [start, end], ordered by expiry date then id.
	QueryExpiringUnnotified(ctx context.Context, start, end calendar.Date) ([]File, error)

	// Pending reports whether the file still awaits its expiry notification.
	// Returns ErrNotFound when the file does not exist.
	Pending(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkNotified records a delivered notification. Returns ErrNotFound when
	// the file does not exist or is already notified.
	MarkNotified(ctx context.Context, id uuid.UUID) error
}
