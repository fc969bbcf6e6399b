package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/mivanenko/shopflow/internal/domain/cart"
	"github.com/mivanenko/shopflow/internal/domain/catalog"
	"github.com/mivanenko/shopflow/internal/domain/delivery"
	"github.com/mivanenko/shopflow/internal/domain/payment"
	"github.com/mivanenko/shopflow/internal/domain/review"
	"github.com/mivanenko/shopflow/internal/domain/user"
)

// errorBody is the JSON error response. Available is set only for stock
// shortfalls so clients can show how many units remain.
type errorBody struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
}

// respondError maps domain errors to HTTP statuses. Unknown errors are
// logged and degrade to 503: storage failure means the feature is
// unavailable, and atomicity guarantees nothing was partially applied.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *catalog.InsufficientStockError
	if errors.As(err, &stockErr) {
		available := stockErr.Available
		respondJSON(w, http.StatusConflict, errorBody{
			Code:      http.StatusConflict,
			Message:   stockErr.Error(),
			Available: &available,
		})
		return
	}

	var passErr *user.InvalidPasswordError
	if errors.As(err, &passErr) {
		respondJSON(w, http.StatusBadRequest, errorBody{
			Code:    http.StatusBadRequest,
			Message: passErr.Error(),
		})
		return
	}

	var status int
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, delivery.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, review.ErrInvalidRating):
		status = http.StatusBadRequest
	case errors.Is(err, user.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, review.ErrNotEligible):
		status = http.StatusForbidden
	case errors.Is(err, cart.ErrNoActiveCart),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, payment.ErrAlreadyPaid),
		errors.Is(err, delivery.ErrPaymentNotPaid):
		status = http.StatusConflict
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, errorBody{
			Code:    http.StatusServiceUnavailable,
			Message: "service temporarily unavailable",
		})
		return
	}

	respondJSON(w, status, errorBody{Code: status, Message: err.Error()})
}
