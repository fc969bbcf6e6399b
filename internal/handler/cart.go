package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mivanenko/shopflow/internal/domain/cart"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartItemResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	LineTotal   float64 `json:"line_total"`
}

type stockWarningResponse struct {
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

type cartResponse struct {
	Items      []cartItemResponse     `json:"items"`
	Total      float64                `json:"total"`
	TotalSpent float64                `json:"total_spent"`
	Warnings   []stockWarningResponse `json:"warnings,omitempty"`
}

func toCartResponse(v *cart.View) cartResponse {
	resp := cartResponse{
		Items:      make([]cartItemResponse, len(v.Items)),
		Total:      v.Total.InexactFloat64(),
		TotalSpent: v.TotalSpent.InexactFloat64(),
	}
	for i, item := range v.Items {
		resp.Items[i] = cartItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.InexactFloat64(),
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal().InexactFloat64(),
		}
	}
	for _, warn := range v.Warnings {
		resp.Warnings = append(resp.Warnings, stockWarningResponse{
			ProductName: warn.ProductName,
			Requested:   warn.Requested,
			Available:   warn.Available,
		})
	}
	return resp
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	view, err := h.carts.View(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.carts.Add(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	if err := h.carts.Remove(r.Context(), userID, chi.URLParam(r, "productID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
