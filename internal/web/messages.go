package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
)

// InboxPage handles GET /messages.
func (s *Server) InboxPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	convs, err := store.ListConversations(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list conversations", "error", err)
	}

	s.Templates.Render(w, "inbox.html", &struct {
		PageData
		Conversations []model.Conversation
		UserID        int64
	}{
		PageData:      s.pageData(r, "Messages"),
		Conversations: convs,
		UserID:        claims.UserID,
	})
}

// StartConversationSubmit handles POST /items/{id}/message. Resolves the
// thread for this item and viewer (creating it if needed) and redirects to it.
func (s *Server) StartConversationSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	conv, err := store.StartConversation(r.Context(), s.DB, itemID, claims.UserID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrItemNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
		return
	case errors.Is(err, store.ErrSelfConversation):
		s.redirectItem(w, r, itemID, "error", "You can't message yourself about your own item.")
		return
	default:
		slog.Error("failed to start conversation", "error", err)
		http.Error(w, "failed to start conversation", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/messages/%d", conv.ID), http.StatusSeeOther)
}

// ConversationPage handles GET /messages/{id}. Opening a thread marks the
// other party's messages as read.
func (s *Server) ConversationPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	conv, err := store.GetConversation(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get conversation", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if conv == nil {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}
	if !conv.HasParticipant(claims.UserID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := store.MarkConversationRead(r.Context(), s.DB, id, claims.UserID); err != nil {
		slog.Error("failed to mark conversation read", "error", err)
	}

	msgs, err := store.ListMessages(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to list messages", "error", err)
	}

	data := s.pageData(r, "Conversation")
	data.Error = r.URL.Query().Get("error")

	s.Templates.Render(w, "conversation.html", &struct {
		PageData
		Conversation *model.Conversation
		Messages     []model.Message
		UserID       int64
	}{
		PageData:     data,
		Conversation: conv,
		Messages:     msgs,
		UserID:       claims.UserID,
	})
}

// MessageSubmit handles POST /messages/{id}.
func (s *Server) MessageSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	conv, err := store.GetConversation(r.Context(), s.DB, id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if conv == nil {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}
	if !conv.HasParticipant(claims.UserID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		http.Redirect(w, r, fmt.Sprintf("/messages/%d?error=%s", id,
			url.QueryEscape("Message can't be empty.")), http.StatusSeeOther)
		return
	}

	if _, err := store.CreateMessage(r.Context(), s.DB, id, claims.UserID, content); err != nil {
		slog.Error("failed to send message", "error", err)
		http.Error(w, "failed to send message", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/messages/%d", id), http.StatusSeeOther)
}
