package files

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/tickler/pkg/storage"
)

// Domain errors for file operations.
var (
	ErrNotFound      = errors.New("file not found")
	ErrOwnerNotFound = errors.New("owner does not exist")
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidDates  = errors.New("expiry date must not precede effective date")
	ErrFileTooLarge  = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps file domain errors to HTTP status codes. Errors from the
// blob store are mapped by the storage package.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrOwnerNotFound),
		errors.Is(err, ErrInvalidFile),
		errors.Is(err, ErrInvalidDates):
		return http.StatusBadRequest
	default:
		return storage.MapHTTPStatus(err)
	}
}
