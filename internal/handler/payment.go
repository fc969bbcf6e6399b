package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mivanenko/shopflow/internal/domain/payment"
)

type paymentResponse struct {
	ID      string  `json:"id"`
	OrderID string  `json:"order_id"`
	Method  string  `json:"method"`
	Amount  float64 `json:"amount"`
	Status  string  `json:"status"`
	PaidAt  string  `json:"paid_at,omitempty"`
}

func toPaymentResponse(p payment.Payment) paymentResponse {
	resp := paymentResponse{
		ID:      p.ID,
		OrderID: p.OrderID,
		Method:  p.Method,
		Amount:  p.Amount.InexactFloat64(),
		Status:  string(p.Status),
	}
	if p.PaidAt != nil {
		resp.PaidAt = p.PaidAt.Format(time.RFC3339)
	}
	return resp
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authedUser(w, r); !ok {
		return
	}

	p, err := h.payments.Confirm(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPaymentResponse(*p))
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	payments, err := h.payments.History(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]paymentResponse, len(payments))
	for i, p := range payments {
		out[i] = toPaymentResponse(p)
	}
	respondJSON(w, http.StatusOK, out)
}
