package httpx

import (
	"errors"
	"net/http"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Ledger rejections are business-rule failures the client is expected to
// correct, not server faults.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrAlreadyExists):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ledger.ErrOverpaymentRejected):
		Problem(w, http.StatusUnprocessableEntity, "Overpayment Rejected", err.Error())
	case errors.Is(err, ledger.ErrInvalidPaymentAmount),
		errors.Is(err, ledger.ErrInvalidLineItem),
		errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
