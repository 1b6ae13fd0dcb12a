package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tickler/internal/files"
	"github.com/JaimeStill/tickler/pkg/mail"
)

// DefaultPersistTimeout bounds the notified write that follows a send.
const DefaultPersistTimeout = 10 * time.Second

// Resolver maps a file owner to a notification address.
type Resolver interface {
	ResolveEmail(ctx context.Context, ownerID uuid.UUID) (string, error)
}

// Dispatcher sends one notification per candidate and records each delivery.
type Dispatcher struct {
	resolver       Resolver
	sender         mail.Sender
	marker         Marker
	persistTimeout time.Duration
	logger         *slog.Logger
}

// NewDispatcher creates a Dispatcher. A non-positive persistTimeout uses
// DefaultPersistTimeout.
func NewDispatcher(
	resolver Resolver,
	sender mail.Sender,
	marker Marker,
	persistTimeout time.Duration,
	logger *slog.Logger,
) *Dispatcher {
	if persistTimeout <= 0 {
		persistTimeout = DefaultPersistTimeout
	}
	return &Dispatcher{
		resolver:       resolver,
		sender:         sender,
		marker:         marker,
		persistTimeout: persistTimeout,
		logger:         logger.With("component", "dispatcher"),
	}
}

// Dispatch processes candidates sequentially. Duplicate ids are dropped
// before any I/O. Each candidate is re-read from the store before sending, so
// a file notified since it was selected is skipped rather than sent twice.
// Per-file failures are recorded in the manifest and never stop the batch.
// Cancellation of ctx is honored between candidates; the remaining
// candidates stay pending and Cancelled is set.
func (d *Dispatcher) Dispatch(ctx context.Context, candidates []files.File) *Manifest {
	m := newManifest()

	unique := dedupe(candidates)
	for _, f := range unique {
		m.Candidates = append(m.Candidates, f.ID)
	}

	for _, f := range unique {
		if ctx.Err() != nil {
			m.Cancelled = true
			break
		}

		pending, err := d.marker.Pending(ctx, f.ID)
		switch {
		case errors.Is(err, files.ErrNotFound):
			pending = false
		case err != nil:
			if ctx.Err() != nil {
				m.Cancelled = true
				return m
			}
			d.logger.Warn("pending check failed", "id", f.ID, "error", err)
			m.fail(f.ID, ReasonStoreUnavailable, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
			continue
		}
		if !pending {
			d.logger.Info("candidate no longer pending", "id", f.ID)
			m.Skipped = append(m.Skipped, f.ID)
			continue
		}

		email, err := d.resolver.ResolveEmail(ctx, f.OwnerID)
		if err != nil {
			if ctx.Err() != nil {
				m.Cancelled = true
				break
			}
			d.logger.Warn("recipient unresolved", "id", f.ID, "owner", f.OwnerID, "error", err)
			m.fail(f.ID, ReasonRecipientUnresolved, fmt.Errorf("%w: %w", ErrRecipientUnresolved, err))
			continue
		}

		if err := d.sender.Send(ctx, Compose(email, f)); err != nil {
			d.logger.Warn("notification send failed", "id", f.ID, "to", email, "error", err)
			m.fail(f.ID, ReasonSendFailed, fmt.Errorf("%w: %w", ErrSendFailed, err))
			continue
		}

		if err := d.persist(ctx, f.ID); err != nil {
			d.logger.Error(
				"notification sent but not recorded; reconcile manually",
				"id", f.ID,
				"to", email,
				"error", err,
			)
			m.fail(f.ID, ReasonPersistAfterSendFailed, fmt.Errorf("%w: %w", ErrPersistAfterSendFailed, err))
			continue
		}

		d.logger.Info("file owner notified", "id", f.ID, "to", email, "expiry", f.ExpiryDate)
		m.Notified = append(m.Notified, Notice{ID: f.ID, Email: email})
	}

	return m
}

// persist ignores cancellation of ctx and is bounded by the persist timeout.
func (d *Dispatcher) persist(ctx context.Context, id uuid.UUID) error {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.persistTimeout)
	defer cancel()
	return d.marker.MarkNotified(pctx, id)
}

func dedupe(candidates []files.File) []files.File {
	seen := make(map[uuid.UUID]struct{}, len(candidates))
	unique := make([]files.File, 0, len(candidates))
	for _, f := range candidates {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		unique = append(unique, f)
	}
	return unique
}
