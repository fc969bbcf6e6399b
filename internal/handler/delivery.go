package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mivanenko/shopflow/internal/domain/delivery"
)

type deliveryResponse struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	PayStatus string `json:"pay_status"`
}

func toDeliveryResponse(d delivery.Delivery) deliveryResponse {
	return deliveryResponse{
		ID:        d.ID,
		PaymentID: d.PaymentID,
		OrderID:   d.OrderID,
		Status:    string(d.Status),
		PayStatus: d.PayStatus,
	}
}

func (h *Handler) processDelivery(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authedUser(w, r); !ok {
		return
	}

	d, err := h.deliveries.Process(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDeliveryResponse(*d))
}

func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	deliveries, err := h.deliveries.History(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]deliveryResponse, len(deliveries))
	for i, d := range deliveries {
		out[i] = toDeliveryResponse(d)
	}
	respondJSON(w, http.StatusOK, out)
}
