package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JaimeStill/tickler/pkg/calendar"
	"github.com/JaimeStill/tickler/pkg/pagination"
	"github.com/JaimeStill/tickler/pkg/query"
	"github.com/JaimeStill/tickler/pkg/repository"
	"github.com/JaimeStill/tickler/pkg/storage"
)

type repo struct {
	db         repository.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a file repository implementing the System interface.
func New(
	db repository.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "files"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[File], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "LocationURL")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Limit(), page.Offset())
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanFile)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}

	result := pagination.NewPageResult(items, total, page)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*File, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	f, err := repository.QueryOne(ctx, r.db, q, args, scanFile)
	if err != nil {
		return nil, repository.MapError(err, errMapping)
	}
	return &f, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*File, error) {
	if err := validateCreate(cmd.OwnerID, cmd.Name, cmd.EffectiveDate, cmd.ExpiryDate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.LocationURL) == "" {
		return nil, fmt.Errorf("%w: location_url required", ErrInvalidFile)
	}

	f, err := r.insert(ctx, uuid.New(), cmd.OwnerID, cmd.Name, cmd.LocationURL, nil, cmd.EffectiveDate, cmd.ExpiryDate)
	if err != nil {
		return nil, err
	}

	r.logger.Info("file registered", "id", f.ID, "owner", f.OwnerID)
	return f, nil
}

func (r *repo) Upload(ctx context.Context, cmd UploadCommand) (*File, error) {
	if err := validateCreate(cmd.OwnerID, cmd.Name, cmd.EffectiveDate, cmd.ExpiryDate); err != nil {
		return nil, err
	}
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidFile)
	}

	id := uuid.New()
	key := buildStorageKey(cmd.OwnerID, id, cmd.Name)

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload file blob: %w", err)
	}

	f, err := r.insertUploaded(ctx, id, key, cmd)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, err
	}

	r.logger.Info(
		"file uploaded",
		"id", f.ID,
		"owner", f.OwnerID,
		"key", key,
		"size", humanize.Bytes(uint64(len(cmd.Data))),
	)
	return f, nil
}

func (r *repo) insertUploaded(ctx context.Context, id uuid.UUID, key string, cmd UploadCommand) (*File, error) {
	location, err := r.storage.URL(key)
	if err != nil {
		return nil, fmt.Errorf("resolve blob url: %w", err)
	}
	return r.insert(ctx, id, cmd.OwnerID, cmd.Name, location, &key, cmd.EffectiveDate, cmd.ExpiryDate)
}

func (r *repo) UpdateDates(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*File, error) {
	if err := validateDates(cmd.EffectiveDate, cmd.ExpiryDate); err != nil {
		return nil, err
	}

	q := `
		UPDATE files SET
			effective_date = $2,
			expiry_date = $3,
			notified = CASE WHEN expiry_date IS DISTINCT FROM $3 THEN false ELSE notified END,
			notified_at = CASE WHEN expiry_date IS DISTINCT FROM $3 THEN NULL ELSE notified_at END,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + returning

	f, err := repository.QueryOne(ctx, r.db, q, []any{id, cmd.EffectiveDate, cmd.ExpiryDate}, scanFile)
	if err != nil {
		return nil, repository.MapError(err, errMapping)
	}

	r.logger.Info("file dates updated", "id", id, "expiry", cmd.ExpiryDate, "notified", f.Notified)
	return &f, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	var key *string
	err := r.db.QueryRow(ctx, "DELETE FROM files WHERE id = $1 RETURNING storage_key", id).Scan(&key)
	if err != nil {
		return repository.MapError(err, errMapping)
	}

	if key != nil {
		if delErr := r.storage.Delete(ctx, *key); delErr != nil && !errors.Is(delErr, storage.ErrNotFound) {
			r.logger.Warn("blob delete failed after record delete", "key", *key, "error", delErr)
		}
	}

	r.logger.Info("file deleted", "id", id)
	return nil
}

func (r *repo) QueryExpiringUnnotified(ctx context.Context, start, end calendar.Date) ([]File, error) {
	q, args := query.
		NewBuilder(projection, expirySort...).
		WhereEquals("Notified", false).
		WhereBetween("ExpiryDate", start, end).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanFile)
	if err != nil {
		return nil, fmt.Errorf("query expiring files %s..%s: %w", start, end, err)
	}
	return items, nil
}

func (r *repo) Pending(ctx context.Context, id uuid.UUID) (bool, error) {
	var notified bool
	err := r.db.QueryRow(ctx, "SELECT notified FROM files WHERE id = $1", id).Scan(&notified)
	if err != nil {
		return false, repository.MapError(err, errMapping)
	}
	return !notified, nil
}

func (r *repo) MarkNotified(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE files SET notified = true, notified_at = now(), updated_at = now()
		 WHERE id = $1 AND notified = false`,
		id,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s is not pending notification", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("mark file %s notified: %w", id, err)
	}
	return nil
}

func (r *repo) insert(
	ctx context.Context,
	id, owner uuid.UUID,
	name, location string,
	key *string,
	effective, expiry *calendar.Date,
) (*File, error) {
	q := `
		INSERT INTO files(id, owner_id, name, location_url, storage_key, effective_date, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + returning

	args := []any{id, owner, strings.TrimSpace(name), location, key, effective, expiry}

	f, err := repository.WithTx(ctx, r.db, func(tx pgx.Tx) (File, error) {
		return repository.QueryOne(ctx, tx, q, args, scanFile)
	})
	if err != nil {
		return nil, repository.MapError(err, errMapping)
	}
	return &f, nil
}

func validateCreate(owner uuid.UUID, name string, effective, expiry *calendar.Date) error {
	if owner == uuid.Nil {
		return fmt.Errorf("%w: owner_id required", ErrInvalidFile)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidFile)
	}
	return validateDates(effective, expiry)
}

func validateDates(effective, expiry *calendar.Date) error {
	if effective != nil && expiry != nil && expiry.Before(*effective) {
		return ErrInvalidDates
	}
	return nil
}

func buildStorageKey(owner, id uuid.UUID, name string) string {
	return fmt.Sprintf("files/%s/%s/%s", owner, id, sanitizeFilename(name))
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		name = "file"
	}
	return url.PathEscape(name)
}
