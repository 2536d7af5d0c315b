package web

import (
	"log/slog"
	"net/http"

	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
)

// Dashboard handles GET /dashboard: the signed-in user's listings and
// activity stats.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	items, err := store.ListItems(r.Context(), s.DB, store.ItemFilter{PosterID: claims.UserID})
	if err != nil {
		slog.Error("failed to list items for dashboard", "error", err)
	}

	total, returned, err := store.CountItemsByPoster(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to count items for dashboard", "error", err)
	}

	conversations, err := store.CountConversations(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to count conversations for dashboard", "error", err)
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Items         []model.Item
		Total         int
		Returned      int
		Conversations int
	}{
		PageData:      s.pageData(r, "My listings"),
		Items:         items,
		Total:         total,
		Returned:      returned,
		Conversations: conversations,
	})
}
