package notifications

import (
	"errors"
	"net/http"
)

var (
	// ErrStoreUnavailable aborts a run: the candidate set could not be read.
	ErrStoreUnavailable = errors.New("file store unavailable")

	ErrRecipientUnresolved    = errors.New("recipient unresolved")
	ErrSendFailed             = errors.New("send failed")
	ErrPersistAfterSendFailed = errors.New("notification sent but not recorded")
	ErrInvalidHorizon         = errors.New("horizon must not be negative")
)

// MapHTTPStatus maps notification errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidHorizon):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
