package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campusfound/campusfound/internal/contact"
	"github.com/campusfound/campusfound/internal/imaging"
	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
)

// ItemsHandler handles listing CRUD and lifecycle endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type itemRequest struct {
	Type                 string `json:"type"`
	Title                string `json:"title"`
	Category             string `json:"category"`
	Location             string `json:"location"`
	Description          string `json:"description"`
	DateLost             string `json:"date_lost"` // YYYY-MM-DD
	RewardOffered        string `json:"reward_offered"`
	VerificationQuestion string `json:"verification_question"`
	ContactPreference    string `json:"contact_preference"`
	PhoneNumber          string `json:"phone_number"`
	Email                string `json:"email"`
}

// toModel validates the request and converts it into a model.Item.
// Returns a user-facing message on validation failure.
func (req *itemRequest) toModel(posterID int64) (*model.Item, string) {
	if !model.ValidType(req.Type) {
		return nil, "type must be 'lost' or 'found'"
	}
	if req.Title == "" {
		return nil, "title required"
	}
	if !model.ValidCategory(req.Category) {
		return nil, "unknown category"
	}

	item := &model.Item{
		PosterID:             posterID,
		Type:                 req.Type,
		Title:                req.Title,
		Category:             req.Category,
		Location:             req.Location,
		Description:          req.Description,
		RewardOffered:        req.RewardOffered,
		VerificationQuestion: req.VerificationQuestion,
		ContactPreference:    req.ContactPreference,
		PhoneNumber:          normalizePhone(req.PhoneNumber),
		Email:                req.Email,
	}
	if item.ContactPreference == "" {
		item.ContactPreference = model.ContactPrefChat
	}

	if req.DateLost != "" {
		d, err := time.Parse("2006-01-02", req.DateLost)
		if err != nil {
			return nil, "date_lost must be YYYY-MM-DD"
		}
		item.DateLost = &d
	}

	if item.Type == model.ItemTypeLost && item.DateLost == nil {
		return nil, "please specify when you lost this item"
	}
	if item.Type == model.ItemTypeFound && item.VerificationQuestion == "" {
		return nil, "please add a verification question for found items"
	}
	if item.PhoneNumber == "" && item.Email == "" {
		return nil, "at least one contact method (phone or email) required"
	}

	return item, ""
}

// normalizePhone runs freeform phone input through the write-time contact
// normalization and stores the bare number, without the scheme tag.
func normalizePhone(v string) string {
	cleaned := contact.CleanContactInfo(v)
	return strings.TrimPrefix(cleaned, contact.WhatsAppScheme)
}

// itemResponse decorates an item with its derived contact channel.
type itemResponse struct {
	*model.Item
	ContactLink string `json:"contact_link,omitempty"`
}

func newItemResponse(item *model.Item) itemResponse {
	resp := itemResponse{Item: item}
	if item.PhoneNumber != "" {
		resp.ContactLink = contact.WhatsAppLink(item.PhoneNumber)
	} else if item.Email != "" {
		resp.ContactLink = "mailto:" + item.Email
	}
	return resp
}

// List handles GET /api/items with type/q/sort query parameters.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ItemFilter{
		Type:  r.URL.Query().Get("type"),
		Query: r.URL.Query().Get("q"),
		Sort:  r.URL.Query().Get("sort"),
	}
	if r.URL.Query().Get("mine") == "true" {
		claims := GetClaims(r.Context())
		if claims == nil {
			jsonError(w, http.StatusUnauthorized, "authentication required for mine=true")
			return
		}
		filter.PosterID = claims.UserID
	}

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, msg := req.toModel(claims.UserID)
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := store.CreateItem(r.Context(), h.DB, item)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item posted", "user", claims.Email, "item", created.Title, "type", created.Type)
	jsonResponse(w, http.StatusCreated, newItemResponse(created))
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	reviews, err := store.ListReviewsByItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item reviews")
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item":    newItemResponse(item),
		"reviews": reviews,
	})
}

// Update handles PUT /api/items/{id}. Poster only.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	existing, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if existing.PosterID != claims.UserID {
		jsonError(w, http.StatusForbidden, "only the poster can edit this item")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, msg := req.toModel(claims.UserID)
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}
	item.ID = id

	if err := store.UpdateItem(r.Context(), h.DB, item); err != nil {
		slog.Error("failed to update item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	updated, _ := store.GetItem(r.Context(), h.DB, id)
	slog.Info("item updated", "user", claims.Email, "item", item.Title)
	jsonResponse(w, http.StatusOK, newItemResponse(updated))
}

// Delete handles DELETE /api/items/{id}. Poster only.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	existing, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if existing.PosterID != claims.UserID {
		jsonError(w, http.StatusForbidden, "only the poster can delete this item")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	slog.Info("item deleted", "user", claims.Email, "item", existing.Title)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Claim handles POST /api/items/{id}/claim.
func (h *ItemsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	err = store.ClaimItem(r.Context(), h.DB, id, claims.UserID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, store.ErrOwnItemClaim):
		jsonError(w, http.StatusForbidden, "you can't claim your own item")
		return
	case errors.Is(err, store.ErrAlreadyClaimed):
		jsonError(w, http.StatusConflict, "this item has already been claimed")
		return
	default:
		slog.Error("failed to claim item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to claim item")
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	slog.Info("item claimed", "user", claims.Email, "item", id)
	jsonResponse(w, http.StatusOK, newItemResponse(item))
}

// Return handles POST /api/items/{id}/return.
func (h *ItemsHandler) Return(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	err = store.MarkReturned(r.Context(), h.DB, id, claims.UserID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, store.ErrNotPoster):
		jsonError(w, http.StatusForbidden, "only the poster can mark this item returned")
		return
	case errors.Is(err, store.ErrAlreadyReturned):
		jsonError(w, http.StatusConflict, "this item is already marked returned")
		return
	default:
		slog.Error("failed to mark item returned", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to mark item returned")
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	slog.Info("item marked returned", "user", claims.Email, "item", id)
	jsonResponse(w, http.StatusOK, newItemResponse(item))
}

// UploadPhoto handles PUT /api/items/{id}/photo. Poster only.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	existing, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if existing.PosterID != claims.UserID {
		jsonError(w, http.StatusForbidden, "only the poster can upload a photo")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, id, result.Data, result.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	slog.Info("item photo uploaded", "user", claims.Email, "item", existing.Title)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/items/{id}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemPhoto(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
