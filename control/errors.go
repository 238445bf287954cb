package control

import (
	"errors"
	"net/http"

	"github.com/ravennakit-go/aoipcore/aoierr"
)

// statusFor maps a control-plane sentinel error (aoierr) to the HTTP
// status code a REST client should see.
func statusFor(err error) int {
	switch {
	case errors.Is(err, aoierr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, aoierr.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, aoierr.ErrSlotTableFull):
		return http.StatusInsufficientStorage
	case errors.Is(err, aoierr.ErrInvalidFormat),
		errors.Is(err, aoierr.ErrInvalidSession),
		errors.Is(err, aoierr.ErrUnspecifiedDestination),
		errors.Is(err, aoierr.ErrInvalidTTL):
		return http.StatusBadRequest
	case errors.Is(err, aoierr.ErrLockUpperBoundReached):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
