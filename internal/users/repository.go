package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jackc/pgx/v5"

	"github.com/JaimeStill/tickler/pkg/query"
	"github.com/JaimeStill/tickler/pkg/repository"
)

type repo struct {
	db     repository.DBTX
	emails *expirable.LRU[uuid.UUID, string]
	logger *slog.Logger
}

// New creates a user repository implementing the System interface. Resolved
// emails are cached for cacheTTL, holding at most cacheSize entries.
func New(
	db repository.DBTX,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) System {
	return &repo{
		db:     db,
		emails: expirable.NewLRU[uuid.UUID, string](cacheSize, nil, cacheTTL),
		logger: logger.With("system", "users"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*User, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	u, err := repository.QueryOne(ctx, r.db, q, args, scanUser)
	if err != nil {
		return nil, repository.MapError(err, errMapping)
	}
	return &u, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*User, error) {
	email, err := normalizeEmail(cmd.Email)
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO users(email)
		VALUES ($1)
		RETURNING id, email, created_at`

	u, err := repository.QueryOne(ctx, r.db, q, []any{email}, scanUser)
	if err != nil {
		return nil, repository.MapError(err, errMapping)
	}

	r.logger.Info("user created", "id", u.ID)
	return &u, nil
}

func (r *repo) ResolveEmail(ctx context.Context, id uuid.UUID) (string, error) {
	if email, ok := r.emails.Get(id); ok {
		return email, nil
	}

	var email string
	err := r.db.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", id).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", fmt.Errorf("resolve email for %s: %w", id, err)
	}

	if strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("%w: %s has no email", ErrNotFound, id)
	}

	r.emails.Add(id, email)
	return email, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return addr.Address, nil
}
