package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
)

// ReviewsHandler handles post-return review endpoints.
type ReviewsHandler struct {
	DB *sql.DB
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// List handles GET /api/items/{id}/reviews.
func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	reviews, err := store.ListReviewsByItem(r.Context(), h.DB, itemID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	jsonResponse(w, http.StatusOK, reviews)
}

// Create handles POST /api/items/{id}/reviews. Only the claimant may review,
// only after the item was returned, and only once.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := store.CreateReview(r.Context(), h.DB, itemID, claims.UserID, req.Rating, req.Comment)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, store.ErrNotClaimant):
		jsonError(w, http.StatusForbidden, "only the person who claimed this item can leave a review")
		return
	case errors.Is(err, store.ErrNotReturned):
		jsonError(w, http.StatusConflict, "you can only review items that have been returned")
		return
	case errors.Is(err, store.ErrAlreadyReviewed):
		jsonError(w, http.StatusConflict, "you have already reviewed this item")
		return
	default:
		slog.Error("failed to create review", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create review")
		return
	}

	slog.Info("review posted", "user", claims.Email, "item", itemID, "rating", review.Rating)
	jsonResponse(w, http.StatusCreated, review)
}
