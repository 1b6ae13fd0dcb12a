package users_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/tickler/internal/testdb"
	"github.com/JaimeStill/tickler/internal/users"
)

type fakeRow struct {
	scanFn func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scanFn(dest...) }

type fakeDB struct {
	queries    int
	queryRowFn func(sql string, args ...any) pgx.Row
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries++
	return f.queryRowFn(sql, args...)
}

func emailRow(email string, err error) pgx.Row {
	return fakeRow{scanFn: func(dest ...any) error {
		if err != nil {
			return err
		}
		*dest[0].(*string) = email
		return nil
	}}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveEmailCaches(t *testing.T) {
	db := &fakeDB{queryRowFn: func(string, ...any) pgx.Row {
		return emailRow("owner@example.com", nil)
	}}
	sys := users.New(db, 16, time.Minute, discard())
	id := uuid.New()

	for range 3 {
		email, err := sys.ResolveEmail(context.Background(), id)
		if err != nil {
			t.Fatalf("ResolveEmail() error = %v", err)
		}
		if email != "owner@example.com" {
			t.Errorf("email: got %s", email)
		}
	}

	if db.queries != 1 {
		t.Errorf("queries: got %d, want 1 (cached)", db.queries)
	}
}

func TestResolveEmailFailures(t *testing.T) {
	storeErr := errors.New("connection reset")

	tests := []struct {
		name         string
		row          pgx.Row
		wantNotFound bool
	}{
		{"unknown owner", emailRow("", pgx.ErrNoRows), true},
		{"empty address", emailRow("  ", nil), true},
		{"store failure", emailRow("", storeErr), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{queryRowFn: func(string, ...any) pgx.Row { return tt.row }}
			sys := users.New(db, 16, time.Minute, discard())
			id := uuid.New()

			_, err := sys.ResolveEmail(context.Background(), id)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := errors.Is(err, users.ErrNotFound); got != tt.wantNotFound {
				t.Errorf("errors.Is(ErrNotFound) = %v, want %v (err: %v)", got, tt.wantNotFound, err)
			}

			sys.ResolveEmail(context.Background(), id)
			if db.queries != 2 {
				t.Errorf("failures must not be cached: queries = %d, want 2", db.queries)
			}
		})
	}
}

func TestCreateRejectsInvalidEmail(t *testing.T) {
	db := &fakeDB{}
	sys := users.New(db, 16, time.Minute, discard())

	for _, email := range []string{"", "not-an-email", "Name <a@example.com>"} {
		if _, err := sys.Create(context.Background(), users.CreateCommand{Email: email}); !errors.Is(err, users.ErrInvalidEmail) {
			t.Errorf("Create(%q) error = %v, want ErrInvalidEmail", email, err)
		}
	}
	if db.queries != 0 {
		t.Errorf("invalid input reached the database %d times", db.queries)
	}
}

func TestRepositoryIntegration(t *testing.T) {
	pool := testdb.Start(t)
	testdb.Reset(t, pool)

	ctx := context.Background()
	sys := users.New(pool, 16, time.Minute, discard())

	u, err := sys.Create(ctx, users.CreateCommand{Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := sys.Find(ctx, u.ID)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if found.Email != "owner@example.com" {
		t.Errorf("email: got %s", found.Email)
	}

	if _, err := sys.Create(ctx, users.CreateCommand{Email: "OWNER@example.com"}); !errors.Is(err, users.ErrDuplicate) {
		t.Errorf("duplicate Create() error = %v, want ErrDuplicate", err)
	}

	if _, err := sys.Find(ctx, uuid.New()); !errors.Is(err, users.ErrNotFound) {
		t.Errorf("Find(unknown) error = %v, want ErrNotFound", err)
	}

	email, err := sys.ResolveEmail(ctx, u.ID)
	if err != nil || email != "owner@example.com" {
		t.Errorf("ResolveEmail() = %q, %v", email, err)
	}
}
