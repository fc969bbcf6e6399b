package handler

import (
	"net/http"
	"time"

	"github.com/mivanenko/shopflow/internal/domain/order"
)

type receiptResponse struct {
	OrderID   string  `json:"order_id"`
	PaymentID string  `json:"payment_id"`
	Total     float64 `json:"total"`
}

type orderResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Total     float64 `json:"total"`
	OrderDate string  `json:"order_date"`
}

func toOrderResponse(o order.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		Status:    string(o.Status),
		Total:     o.Total.InexactFloat64(),
		OrderDate: o.OrderDate.Format(time.RFC3339),
	}
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	receipt, err := h.orders.Checkout(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, receiptResponse{
		OrderID:   receipt.OrderID,
		PaymentID: receipt.PaymentID,
		Total:     receipt.Total.InexactFloat64(),
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.History(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	respondJSON(w, http.StatusOK, out)
}
