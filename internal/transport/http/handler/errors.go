package handler

import (
	"errors"
	"net/http"

	"github.com/task-tracker-api/internal/domain"
)

const serverError = "Server error"

// statusOf maps a service error to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrOTPRejected):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// httpError writes err as a {"message"} body. Errors without a client-facing
// message never leak their text.
func httpError(w http.ResponseWriter, err error) {
	writeError(w, statusOf(err), domain.MessageOf(err, serverError))
}
