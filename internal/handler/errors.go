package handler

import (
	"errors"
	"net/http"

	"github.com/guestlink/guestlink/internal/service"
)

// writeServiceError maps service errors to the error envelope.
// Unknown errors become a 500 without leaking details.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrFirstNameTooLong),
		errors.Is(err, service.ErrInvalidTotal),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusConflict, "EMAIL_EXISTS", err.Error())
	case errors.Is(err, service.ErrOrderExists):
		writeError(w, http.StatusConflict, "ORDER_EXISTS", err.Error())
	case errors.Is(err, service.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
