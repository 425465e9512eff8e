package apperr

import (
	"errors"
	"net/http"
)

// Status maps an error from the service layer onto an HTTP status code.
func Status(err error) int {
	var verr *ValidationError
	var berr *BusinessError
	var cerr *ConflictError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &cerr):
		return http.StatusConflict
	case errors.As(err, &berr):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to show the caller.
func PublicMessage(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
