package api

import (
	"errors"
	"net/http"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/payments"
	"github.com/Nixie-Tech-LLC/islamapp/internal/stores"
	"github.com/Nixie-Tech-LLC/islamapp/internal/storage"
)

func BadRequest(msg string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: msg}
}

// FromError maps a store or backend error onto a response. message is what
// the store put into its error state, if anything.
func FromError(err error, message string) *APIError {
	if message == "" {
		message = backend.HumanMessage(err)
	}

	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrSessionExpired), errors.Is(err, backend.ErrNoRefreshToken):
		return &APIError{Code: http.StatusUnauthorized, Message: message}
	case errors.Is(err, backend.ErrRefreshInProgress),
		errors.Is(err, stores.ErrScanInProgress):
		return &APIError{Code: http.StatusConflict, Message: message}
	case errors.Is(err, stores.ErrScanTimeout),
		errors.Is(err, payments.ErrConfirmationTimeout):
		return &APIError{Code: http.StatusGatewayTimeout, Message: message}
	case errors.Is(err, payments.ErrPaymentRejected), errors.Is(err, payments.ErrPaymentFailed):
		return &APIError{Code: http.StatusPaymentRequired, Message: message}
	case errors.Is(err, payments.ErrItemNotFound), errors.Is(err, stores.ErrUnknownPayment):
		return &APIError{Code: http.StatusNotFound, Message: message}
	case errors.Is(err, stores.ErrEmptyQuestion), errors.Is(err, stores.ErrEmptyImage),
		errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, stores.ErrAlreadyClaimed):
		return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return &APIError{Code: apiErr.Status, Message: message}
	default:
		return &APIError{Code: http.StatusBadGateway, Message: message}
	}
}
