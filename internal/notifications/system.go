package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/tickler/pkg/calendar"
	"github.com/JaimeStill/tickler/pkg/lifecycle"
	"github.com/JaimeStill/tickler/pkg/mail"
)

// Config holds the run parameters of the notification system.
type Config struct {
	HorizonDays    int
	Location       *time.Location
	PersistTimeout time.Duration
}

// RunOptions adjusts a single run. The zero value scans from the current
// time with the configured horizon.
type RunOptions struct {
	// Now is the reference instant. Zero uses the system clock.
	Now time.Time
	// Today pins the window start to a calendar date and takes precedence over Now.
	Today *calendar.Date
	// HorizonDays overrides the configured horizon when set.
	HorizonDays *int
	// DryRun scans without sending or marking anything.
	DryRun bool
}

// System runs expiry scans.
type System interface {
	Handler() *Handler

	// Run scans for files due a notification and dispatches them.
	// Concurrent runs over the same window share one execution, which is
	// cancelled only once every caller waiting on it has gone. A caller that
	// leaves a run others still wait on gets its context error; the last
	// caller to leave waits for the run to stop at its next file boundary.
	// Returns an error wrapping ErrStoreUnavailable when the scan cannot
	// read candidates; per-file failures are reported in the manifest.
	Run(ctx context.Context, opts RunOptions) (*Manifest, error)
}

type system struct {
	scanner    *Scanner
	dispatcher *Dispatcher
	horizon    int
	clock      func() time.Time
	group      singleflight.Group
	mu         sync.Mutex
	flights    map[string]*flight
	logger     *slog.Logger
}

// flight is the execution context of a shared run and the number of
// callers still waiting on it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New creates the notification system over the given collaborators.
func New(
	store Store,
	resolver Resolver,
	sender mail.Sender,
	cfg Config,
	logger *slog.Logger,
) System {
	logger = logger.With("system", "notifications")
	return &system{
		scanner:    NewScanner(store, cfg.Location, logger),
		dispatcher: NewDispatcher(resolver, sender, store, cfg.PersistTimeout, logger),
		horizon:    cfg.HorizonDays,
		clock:      time.Now,
		flights:    make(map[string]*flight),
		logger:     logger,
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) Run(ctx context.Context, opts RunOptions) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, err := s.window(opts)
	if err != nil {
		return nil, err
	}

	key := flightKey(w, opts.DryRun)
	f := s.join(ctx, key)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.run(f.ctx, w, opts.DryRun)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
		s.leave(key, f)
	case <-ctx.Done():
		if !s.leave(key, f) {
			s.logger.Info("caller left shared run", "window", w, "error", ctx.Err())
			return nil, ctx.Err()
		}
		res = <-ch
	}

	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		s.logger.Debug("joined in-flight run", "window", w)
	}
	return res.Val.(*Manifest), nil
}

func flightKey(w calendar.Window, dryRun bool) string {
	return fmt.Sprintf("%s dry=%t", w, dryRun)
}

func (s *system) join(ctx context.Context, key string) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		s.flights[key] = f
	}
	f.waiters++
	return f
}

// leave reports whether f lost its last waiter, in which case its run is
// cancelled.
func (s *system) leave(key string, f *flight) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return false
	}
	f.cancel()
	if s.flights[key] == f {
		delete(s.flights, key)
	}
	return true
}

func (s *system) window(opts RunOptions) (calendar.Window, error) {
	horizon := s.horizon
	if opts.HorizonDays != nil {
		horizon = *opts.HorizonDays
	}
	if horizon < 0 {
		return calendar.Window{}, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}

	if opts.Today != nil {
		return calendar.Window{Start: *opts.Today, End: opts.Today.AddDays(horizon)}, nil
	}

	now := opts.Now
	if now.IsZero() {
		now = s.clock()
	}
	return s.scanner.Window(now, horizon)
}

func (s *system) run(ctx context.Context, w calendar.Window, dryRun bool) (*Manifest, error) {
	start := time.Now()

	candidates, err := s.scanner.ScanWindow(ctx, w)
	if err != nil {
		runsTotal.WithLabelValues("store_unavailable").Inc()
		s.logger.Error("expiry scan failed", "window", w, "error", err)
		return nil, err
	}

	var m *Manifest
	if dryRun {
		m = newManifest()
		for _, f := range candidates {
			m.Candidates = append(m.Candidates, f.ID)
		}
	} else {
		m = s.dispatcher.Dispatch(ctx, candidates)
	}

	m.Window = w
	m.DryRun = dryRun
	m.Duration = time.Since(start)
	observe(m)

	s.logger.Info(
		"expiry scan complete",
		"window", w,
		"dry_run", dryRun,
		"candidates", len(m.Candidates),
		"notified", len(m.Notified),
		"failures", len(m.Failures),
		"cancelled", m.Cancelled,
		"duration", m.Duration,
	)

	return m, nil
}

// Schedule runs sys every interval once lc finishes startup, until shutdown.
// A non-positive interval leaves scans to explicit triggers.
func Schedule(lc *lifecycle.Coordinator, sys System, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		logger.Info("notification schedule disabled")
		return
	}

	logger.Info("notification schedule enabled", "interval", interval)
	lc.OnInterval(interval, func(ctx context.Context) {
		if _, err := sys.Run(ctx, RunOptions{}); err != nil {
			logger.Error("scheduled expiry scan failed", "error", err)
		}
	})
}
