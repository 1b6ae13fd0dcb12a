package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tickler/internal/files"
	"github.com/JaimeStill/tickler/pkg/calendar"
)

// Store is the subset of the file store a run needs.
type Store interface {
	QueryExpiringUnnotified(ctx context.Context, start, end calendar.Date) ([]files.File, error)
	Marker
}

// Marker checks and records the notification state of a file.
type Marker interface {
	Pending(ctx context.Context, id uuid.UUID) (bool, error)
	MarkNotified(ctx context.Context, id uuid.UUID) error
}

// Scanner selects the files due for an expiry notification.
type Scanner struct {
	store    Store
	location *time.Location
	logger   *slog.Logger
}

// NewScanner creates a Scanner that takes calendar dates in loc.
func NewScanner(store Store, loc *time.Location, logger *slog.Logger) *Scanner {
	if loc == nil {
		loc = time.UTC
	}
	return &Scanner{
		store:    store,
		location: loc,
		logger:   logger.With("component", "scanner"),
	}
}

// Window returns [today, today+horizonDays] for now in the scanner's zone.
func (s *Scanner) Window(now time.Time, horizonDays int) (calendar.Window, error) {
	w, err := calendar.NewWindow(now, s.location, horizonDays)
	if err != nil {
		return calendar.Window{}, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizonDays)
	}
	return w, nil
}

// Scan returns the unnotified files expiring within horizonDays of now.
func (s *Scanner) Scan(ctx context.Context, now time.Time, horizonDays int) ([]files.File, error) {
	w, err := s.Window(now, horizonDays)
	if err != nil {
		return nil, err
	}
	return s.ScanWindow(ctx, w)
}

// ScanWindow returns the unnotified files whose expiry date lies in w.
// An empty result is not an error.
func (s *Scanner) ScanWindow(ctx context.Context, w calendar.Window) ([]files.File, error) {
	found, err := s.store.QueryExpiringUnnotified(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	seen := make(map[uuid.UUID]struct{}, len(found))
	candidates := make([]files.File, 0, len(found))

	for _, f := range found {
		if f.Notified || f.ExpiryDate == nil || !w.Contains(*f.ExpiryDate) {
			s.logger.Warn("store returned ineligible file", "id", f.ID, "window", w)
			continue
		}
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		candidates = append(candidates, f)
	}

	s.logger.Debug("scan complete", "window", w, "candidates", len(candidates))
	return candidates, nil
}
