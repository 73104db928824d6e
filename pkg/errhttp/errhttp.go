// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapError for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/medshelf/pkg/httpx"
	medicinedomain "github.com/ghuser/medshelf/services/medicine/domain"
)

// WriteError maps err to an HTTP status code, writes {"error": message}
// and returns the status so callers can log server errors.
// Uses errors.Is/As so wrapped sentinel errors are matched correctly.
// Unrecognized errors are 500; in production their text is hidden.
func WriteError(w http.ResponseWriter, err error, production bool) int {
	status, msg := mapError(err)
	if status >= http.StatusInternalServerError {
		msg = httpx.SafeError(err, status, production)
	}
	httpx.JSONError(w, status, msg)
	return status
}

func mapError(err error) (int, string) {
	var ve *medicinedomain.ValidationError
	switch {
	case errors.Is(err, medicinedomain.ErrMedicineNotFound):
		return http.StatusNotFound, "Not found"
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, medicinedomain.ErrInvalidMedicine),
		errors.Is(err, medicinedomain.ErrNoFieldsToUpdate):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
