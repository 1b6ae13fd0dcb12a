package notifications_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/tickler/internal/files"
	"github.com/JaimeStill/tickler/pkg/calendar"
	"github.com/JaimeStill/tickler/pkg/mail"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(s string) *calendar.Date {
	d := calendar.MustParse(s)
	return &d
}

func ptr[T any](v T) *T { return &v }

// memoryStore applies the same selection rule as the database query.
type memoryStore struct {
	mu        sync.Mutex
	files     map[uuid.UUID]*files.File
	queryFn   func() error
	markFn    func(ctx context.Context, id uuid.UUID) error
	pendingFn func(id uuid.UUID) error
	queries   int
	marks     int
}

func newMemoryStore(records ...files.File) *memoryStore {
	s := &memoryStore{files: make(map[uuid.UUID]*files.File)}
	for _, f := range records {
		s.files[f.ID] = &f
	}
	return s
}

func (s *memoryStore) QueryExpiringUnnotified(ctx context.Context, start, end calendar.Date) ([]files.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries++
	if s.queryFn != nil {
		if err := s.queryFn(); err != nil {
			return nil, err
		}
	}

	var out []files.File
	for _, f := range s.files {
		if f.Notified || f.ExpiryDate == nil {
			continue
		}
		if f.ExpiryDate.Before(start) || f.ExpiryDate.After(end) {
			continue
		}
		out = append(out, *f)
	}

	slices.SortFunc(out, func(a, b files.File) int {
		if c := a.ExpiryDate.Compare(*b.ExpiryDate); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (s *memoryStore) Pending(ctx context.Context, id uuid.UUID) (bool, error) {
	if s.pendingFn != nil {
		if err := s.pendingFn(id); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return false, files.ErrNotFound
	}
	return !f.Notified, nil
}

func (s *memoryStore) MarkNotified(ctx context.Context, id uuid.UUID) error {
	if s.markFn != nil {
		if err := s.markFn(ctx, id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.marks++
	f, ok := s.files[id]
	if !ok || f.Notified {
		return files.ErrNotFound
	}
	f.Notified = true
	return nil
}

func (s *memoryStore) notified(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	return ok && f.Notified
}

type mockResolver struct {
	emails map[uuid.UUID]string
}

func (r *mockResolver) ResolveEmail(ctx context.Context, owner uuid.UUID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	email, ok := r.emails[owner]
	if !ok {
		return "", errors.New("user not found")
	}
	return email, nil
}

type mockSender struct {
	mu     sync.Mutex
	sent   []mail.Message
	sendFn func(ctx context.Context, msg mail.Message) error
}

func (s *mockSender) Send(ctx context.Context, msg mail.Message) error {
	if s.sendFn != nil {
		if err := s.sendFn(ctx, msg); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *mockSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

var (
	ownerA = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	ownerB = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
)

func newResolver() *mockResolver {
	return &mockResolver{emails: map[uuid.UUID]string{
		ownerA: "a@example.com",
		ownerB: "b@example.com",
	}}
}

func record(id string, owner uuid.UUID, expiry *calendar.Date) files.File {
	return files.File{
		ID:          uuid.MustParse(id),
		OwnerID:     owner,
		Name:        "file-" + id[len(id)-2:],
		LocationURL: "https://blob.test/" + id,
		ExpiryDate:  expiry,
	}
}
