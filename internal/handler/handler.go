// Package handler exposes the domain services over a thin JSON transport.
//
// Authentication is external: requests arrive with the authenticated user ID
// in the X-User-ID header, set by the fronting gateway after session
// validation. Handlers never look up ambient session state.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/mivanenko/shopflow/internal/domain/cart"
	"github.com/mivanenko/shopflow/internal/domain/catalog"
	"github.com/mivanenko/shopflow/internal/domain/delivery"
	"github.com/mivanenko/shopflow/internal/domain/order"
	"github.com/mivanenko/shopflow/internal/domain/payment"
	"github.com/mivanenko/shopflow/internal/domain/review"
	"github.com/mivanenko/shopflow/internal/domain/user"
)

// userIDHeader carries the authenticated user identity from upstream auth.
const userIDHeader = "X-User-ID"

// Handler wires the domain services to HTTP routes.
type Handler struct {
	users      *user.Service
	products   catalog.Repository
	carts      *cart.Service
	orders     *order.Service
	payments   *payment.Service
	deliveries *delivery.Service
	reviews    *review.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	users *user.Service,
	products catalog.Repository,
	carts *cart.Service,
	orders *order.Service,
	payments *payment.Service,
	deliveries *delivery.Service,
	reviews *review.Service,
) *Handler {
	return &Handler{
		users:      users,
		products:   products,
		carts:      carts,
		orders:     orders,
		payments:   payments,
		deliveries: deliveries,
		reviews:    reviews,
	}
}

// Routes returns the API route tree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/users", h.register)
	r.Post("/login", h.login)

	r.Get("/products", h.listProducts)
	r.Get("/products/top", h.topProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/products/{productID}/reviews", h.listReviews)
	r.Post("/products/{productID}/reviews", h.addReview)

	r.Get("/cart", h.viewCart)
	r.Post("/cart/items", h.addToCart)
	r.Delete("/cart/items/{productID}", h.removeFromCart)

	r.Post("/checkout", h.checkout)
	r.Get("/orders", h.listOrders)

	r.Get("/payments", h.listPayments)
	r.Post("/payments/{paymentID}/confirm", h.confirmPayment)

	r.Get("/deliveries", h.listDeliveries)
	r.Post("/deliveries/{paymentID}/process", h.processDelivery)

	return r
}

// authedUser extracts the authenticated user ID. A missing header means the
// request bypassed the gateway; reject it.
func (h *Handler) authedUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(userIDHeader)
	if id == "" {
		respondJSON(w, http.StatusUnauthorized, errorBody{
			Code:    http.StatusUnauthorized,
			Message: "missing user identity",
		})
		return "", false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		zctx.From(r.Context()).Debug("malformed request body", zap.Error(err))
		respondJSON(w, http.StatusBadRequest, errorBody{
			Code:    http.StatusBadRequest,
			Message: "malformed request body",
		})
		return false
	}
	return true
}
