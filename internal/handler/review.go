package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mivanenko/shopflow/internal/domain/review"
)

type addReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

type reviewResponse struct {
	ProductID string `json:"product_id"`
	UserName  string `json:"user_name,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func toReviewResponse(rv review.Review) reviewResponse {
	resp := reviewResponse{
		ProductID: rv.ProductID,
		UserName:  rv.UserName,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
	}
	if !rv.CreatedAt.IsZero() {
		resp.CreatedAt = rv.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedUser(w, r)
	if !ok {
		return
	}

	var req addReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rv, err := h.reviews.Add(r.Context(), userID, chi.URLParam(r, "productID"), req.Rating, req.Comment)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toReviewResponse(*rv))
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ForProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]reviewResponse, len(reviews))
	for i, rv := range reviews {
		out[i] = toReviewResponse(rv)
	}
	respondJSON(w, http.StatusOK, out)
}
