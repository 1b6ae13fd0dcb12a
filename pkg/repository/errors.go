package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Mapping lists the domain errors a repository translates database errors into.
// Nil fields leave the corresponding database error untranslated.
type Mapping struct {
	NotFound  error
	Duplicate error
	Reference error
}

// MapError translates database errors to domain errors: pgx.ErrNoRows to
// NotFound, unique violations to Duplicate, and foreign key violations to
// Reference. Other errors are returned unchanged.
func MapError(err error, m Mapping) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) && m.NotFound != nil {
		return m.NotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && m.Duplicate != nil:
			return m.Duplicate
		case pgErr.Code == pgForeignKeyViolation && m.Reference != nil:
			return m.Reference
		}
	}

	return err
}
