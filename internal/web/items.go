package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/campusfound/campusfound/internal/contact"
	"github.com/campusfound/campusfound/internal/imaging"
	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
)

// HomePage handles GET /. Public browse page with type, search and sort
// filters.
func (s *Server) HomePage(w http.ResponseWriter, r *http.Request) {
	filter := store.ItemFilter{
		Type:  r.URL.Query().Get("type"),
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
		Sort:  r.URL.Query().Get("sort"),
	}

	items, err := store.ListItems(r.Context(), s.DB, filter)
	if err != nil {
		slog.Error("failed to list items", "error", err)
	}

	s.Templates.Render(w, "home.html", &struct {
		PageData
		Items []model.Item
		Type  string
		Query string
		Sort  string
	}{
		PageData: s.pageData(r, "Campus Lost & Found"),
		Items:    items,
		Type:     filter.Type,
		Query:    filter.Query,
		Sort:     filter.Sort,
	})
}

// ItemDetailPage handles GET /items/{id}. Public, with viewer-specific
// actions when signed in.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	reviews, err := store.ListReviewsByItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to list reviews", "error", err)
	}

	data := s.pageData(r, item.Title)
	data.Error = r.URL.Query().Get("error")
	data.Success = r.URL.Query().Get("success")

	var isPoster, canClaim, canReturn, canReview, canMessage bool
	if claims := data.User; claims != nil {
		isPoster = item.PosterID == claims.UserID
		canClaim = !isPoster && item.Status == model.ItemStatusActive
		canReturn = isPoster && item.Status != model.ItemStatusReturned
		canMessage = !isPoster
		if item.Status == model.ItemStatusReturned &&
			item.ClaimedBy != nil && *item.ClaimedBy == claims.UserID {
			reviewed, err := store.HasReviewed(r.Context(), s.DB, id, claims.UserID)
			if err != nil {
				slog.Error("failed to check review", "error", err)
			}
			canReview = !reviewed
		}
	}

	s.Templates.Render(w, "item_detail.html", &struct {
		PageData
		Item        *model.Item
		Reviews     []model.Review
		ContactLink string
		IsPoster    bool
		CanClaim    bool
		CanReturn   bool
		CanReview   bool
		CanMessage  bool
	}{
		PageData:    data,
		Item:        item,
		Reviews:     reviews,
		ContactLink: contactLink(item),
		IsPoster:    isPoster,
		CanClaim:    canClaim,
		CanReturn:   canReturn,
		CanReview:   canReview,
		CanMessage:  canMessage,
	})
}

// PostItemPage handles GET /items/new.
func (s *Server) PostItemPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "item_form.html", &struct {
		PageData
		Item *model.Item
	}{
		PageData: s.pageData(r, "Post an item"),
		Item:     &model.Item{Type: model.ItemTypeLost},
	})
}

// PostItemSubmit handles POST /items. The form is multipart so a photo can
// be attached in the same submission.
func (s *Server) PostItemSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 6<<20)
	if err := r.ParseMultipartForm(6 << 20); err != nil {
		http.Error(w, "form too large", http.StatusBadRequest)
		return
	}

	item, errMsg := itemFromForm(r, claims.UserID)
	if errMsg != "" {
		data := s.pageData(r, "Post an item")
		data.Error = errMsg
		s.Templates.Render(w, "item_form.html", &struct {
			PageData
			Item *model.Item
		}{PageData: data, Item: item})
		return
	}

	created, err := store.CreateItem(r.Context(), s.DB, item)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		http.Error(w, "failed to create item", http.StatusInternalServerError)
		return
	}

	if msg := s.savePhotoFromForm(r, created.ID); msg != "" {
		http.Redirect(w, r, fmt.Sprintf("/items/%d?error=%s", created.ID, url.QueryEscape(msg)), http.StatusSeeOther)
		return
	}

	slog.Info("item posted", "user", claims.Email, "item", created.Title, "type", created.Type)
	http.Redirect(w, r, fmt.Sprintf("/items/%d", created.ID), http.StatusSeeOther)
}

// ItemEditPage handles GET /items/{id}/edit.
func (s *Server) ItemEditPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	if item.PosterID != claims.UserID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	s.Templates.Render(w, "item_form.html", &struct {
		PageData
		Item *model.Item
	}{
		PageData: s.pageData(r, "Edit listing"),
		Item:     item,
	})
}

// ItemUpdateSubmit handles POST /items/{id}.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	existing, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	if existing.PosterID != claims.UserID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 6<<20)
	if err := r.ParseMultipartForm(6 << 20); err != nil {
		http.Error(w, "form too large", http.StatusBadRequest)
		return
	}

	item, errMsg := itemFromForm(r, claims.UserID)
	if errMsg != "" {
		item.ID = id
		data := s.pageData(r, "Edit listing")
		data.Error = errMsg
		s.Templates.Render(w, "item_form.html", &struct {
			PageData
			Item *model.Item
		}{PageData: data, Item: item})
		return
	}
	item.ID = id

	if err := store.UpdateItem(r.Context(), s.DB, item); err != nil {
		slog.Error("failed to update item", "error", err)
		http.Error(w, "failed to update", http.StatusInternalServerError)
		return
	}

	if msg := s.savePhotoFromForm(r, id); msg != "" {
		http.Redirect(w, r, fmt.Sprintf("/items/%d?error=%s", id, url.QueryEscape(msg)), http.StatusSeeOther)
		return
	}

	slog.Info("item updated", "user", claims.Email, "item", item.Title)
	http.Redirect(w, r, fmt.Sprintf("/items/%d", id), http.StatusSeeOther)
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	if item.PosterID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := store.DeleteItem(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete item", "error", err)
		http.Error(w, "failed to delete", http.StatusInternalServerError)
		return
	}

	slog.Info("item deleted", "user", claims.Email, "item", item.Title)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ItemClaimSubmit handles POST /items/{id}/claim.
func (s *Server) ItemClaimSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	err = store.ClaimItem(r.Context(), s.DB, id, claims.UserID)
	switch {
	case err == nil:
		slog.Info("item claimed", "user", claims.Email, "item", id)
		s.redirectItem(w, r, id, "success", "Item claimed. Arrange the handover with the poster.")
	case errors.Is(err, store.ErrItemNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
	case errors.Is(err, store.ErrOwnItemClaim):
		s.redirectItem(w, r, id, "error", "You can't claim your own item.")
	case errors.Is(err, store.ErrAlreadyClaimed):
		s.redirectItem(w, r, id, "error", "This item has already been claimed.")
	default:
		slog.Error("failed to claim item", "error", err)
		http.Error(w, "failed to claim", http.StatusInternalServerError)
	}
}

// ItemReturnSubmit handles POST /items/{id}/return.
func (s *Server) ItemReturnSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	err = store.MarkReturned(r.Context(), s.DB, id, claims.UserID)
	switch {
	case err == nil:
		slog.Info("item returned", "user", claims.Email, "item", id)
		s.redirectItem(w, r, id, "success", "Marked as returned.")
	case errors.Is(err, store.ErrItemNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
	case errors.Is(err, store.ErrNotPoster):
		s.redirectItem(w, r, id, "error", "Only the poster can mark an item as returned.")
	case errors.Is(err, store.ErrAlreadyReturned):
		s.redirectItem(w, r, id, "error", "This item was already marked as returned.")
	default:
		slog.Error("failed to mark item returned", "error", err)
		http.Error(w, "failed to update", http.StatusInternalServerError)
	}
}

// ReviewSubmit handles POST /items/{id}/review.
func (s *Server) ReviewSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rating, _ := strconv.Atoi(r.FormValue("rating"))
	comment := strings.TrimSpace(r.FormValue("comment"))

	_, err = store.CreateReview(r.Context(), s.DB, id, claims.UserID, rating, comment)
	switch {
	case err == nil:
		slog.Info("review posted", "user", claims.Email, "item", id, "rating", rating)
		s.redirectItem(w, r, id, "success", "Thanks for your review.")
	case errors.Is(err, store.ErrItemNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
	case errors.Is(err, store.ErrNotClaimant):
		s.redirectItem(w, r, id, "error", "Only the person who claimed this item can leave a review.")
	case errors.Is(err, store.ErrNotReturned):
		s.redirectItem(w, r, id, "error", "You can only review items that have been returned.")
	case errors.Is(err, store.ErrAlreadyReviewed):
		s.redirectItem(w, r, id, "error", "You have already reviewed this item.")
	default:
		slog.Error("failed to create review", "error", err)
		s.redirectItem(w, r, id, "error", "Rating must be between 1 and 5.")
	}
}

// ItemPhotoGet handles GET /items/{id}/photo (public).
func (s *Server) ItemPhotoGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	data, mime, err := store.GetItemPhoto(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get photo", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write photo response", "error", err)
	}
}

// savePhotoFromForm processes an optional "photo" file in a multipart form.
// Returns a user-facing error message, or "" on success or no file.
func (s *Server) savePhotoFromForm(r *http.Request, itemID int64) string {
	file, _, err := r.FormFile("photo")
	if err != nil {
		return "" // no photo attached
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		return "Photo could not be processed, use a JPEG or PNG."
	}

	if err := store.SetItemPhoto(r.Context(), s.DB, itemID, result.Data, result.MIME); err != nil {
		slog.Error("failed to save photo", "error", err)
		return "Photo could not be saved."
	}
	return ""
}

func (s *Server) redirectItem(w http.ResponseWriter, r *http.Request, id int64, kind, msg string) {
	http.Redirect(w, r, fmt.Sprintf("/items/%d?%s=%s", id, kind, url.QueryEscape(msg)), http.StatusSeeOther)
}

// itemFromForm builds a listing from submitted form values. Returns the
// partially-filled item and a validation message; an empty message means the
// item is valid.
func itemFromForm(r *http.Request, posterID int64) (*model.Item, string) {
	item := &model.Item{
		PosterID:             posterID,
		Type:                 r.FormValue("item_type"),
		Title:                strings.TrimSpace(r.FormValue("title")),
		Category:             r.FormValue("category"),
		Location:             strings.TrimSpace(r.FormValue("location")),
		Description:          strings.TrimSpace(r.FormValue("description")),
		RewardOffered:        strings.TrimSpace(r.FormValue("reward_offered")),
		VerificationQuestion: strings.TrimSpace(r.FormValue("verification_question")),
		ContactPreference:    r.FormValue("contact_preference"),
		PhoneNumber:          strings.TrimSpace(r.FormValue("phone_number")),
		Email:                strings.TrimSpace(r.FormValue("email")),
	}

	if dateStr := r.FormValue("date_lost"); dateStr != "" {
		t, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return item, "Enter the date as YYYY-MM-DD."
		}
		item.DateLost = &t
	}

	if !model.ValidType(item.Type) {
		return item, "Pick whether the item is lost or found."
	}
	if item.Title == "" {
		return item, "Enter a title."
	}
	if !model.ValidCategory(item.Category) {
		return item, "Pick a category."
	}
	if item.Type == model.ItemTypeLost && item.DateLost == nil {
		return item, "Enter the date the item was lost."
	}
	if item.Type == model.ItemTypeFound && item.VerificationQuestion == "" {
		return item, "Add a verification question so the owner can prove it's theirs."
	}
	if item.PhoneNumber == "" && item.Email == "" {
		return item, "Provide a phone number or an email address."
	}

	if item.PhoneNumber != "" {
		cleaned := contact.CleanContactInfo(item.PhoneNumber)
		item.PhoneNumber = strings.TrimPrefix(cleaned, contact.WhatsAppScheme)
	}

	return item, ""
}

func contactLink(item *model.Item) string {
	if item.PhoneNumber != "" {
		return contact.WhatsAppLink(item.PhoneNumber)
	}
	if item.Email != "" {
		return "mailto:" + item.Email
	}
	return ""
}
