package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
)

// ConversationsHandler handles per-item messaging endpoints.
type ConversationsHandler struct {
	DB *sql.DB
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// List handles GET /api/conversations (the inbox).
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	convs, err := store.ListConversations(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list conversations", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	if convs == nil {
		convs = []model.Conversation{}
	}
	jsonResponse(w, http.StatusOK, convs)
}

// Start handles POST /api/items/{id}/conversations. Creates or resolves the
// single thread between the caller and the item's poster.
func (h *ConversationsHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	conv, err := store.StartConversation(r.Context(), h.DB, itemID, claims.UserID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, store.ErrSelfConversation):
		jsonError(w, http.StatusForbidden, "you can't message yourself about your own item")
		return
	default:
		slog.Error("failed to start conversation", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to start conversation")
		return
	}

	jsonResponse(w, http.StatusOK, conv)
}

// Get handles GET /api/conversations/{id}: the thread with its messages,
// oldest first. Opening the thread marks the other party's messages read.
func (h *ConversationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	conv, err := store.GetConversation(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get conversation")
		return
	}
	if conv == nil {
		jsonError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if !conv.HasParticipant(claims.UserID) {
		jsonError(w, http.StatusForbidden, "you don't have access to this conversation")
		return
	}

	if err := store.MarkConversationRead(r.Context(), h.DB, id, claims.UserID); err != nil {
		slog.Error("failed to mark conversation read", "error", err)
	}

	msgs, err := store.ListMessages(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     msgs,
	})
}

// SendMessage handles POST /api/conversations/{id}/messages.
func (h *ConversationsHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	conv, err := store.GetConversation(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get conversation")
		return
	}
	if conv == nil {
		jsonError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if !conv.HasParticipant(claims.UserID) {
		jsonError(w, http.StatusForbidden, "you don't have access to this conversation")
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		jsonError(w, http.StatusBadRequest, "message content required")
		return
	}

	msg, err := store.CreateMessage(r.Context(), h.DB, id, claims.UserID, req.Content)
	if err != nil {
		slog.Error("failed to send message", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	jsonResponse(w, http.StatusCreated, msg)
}
