package store

import (
	"context"
	"errors"
	"testing"

	"github.com/campusfound/campusfound/internal/db"
	"github.com/campusfound/campusfound/internal/model"
)

func TestStartConversationDeduplicates(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := createTestUser(t, database, "poster@campus.edu")
	finder := createTestUser(t, database, "finder@campus.edu")
	item := createTestItem(t, database, poster.ID, model.ItemTypeLost, "Headphones")

	first, err := StartConversation(ctx, database, item.ID, finder.ID)
	if err != nil {
		t.Fatalf("StartConversation: %v", err)
	}

	// Starting again resolves to the same thread instead of creating another.
	second, err := StartConversation(ctx, database, item.ID, finder.ID)
	if err != nil {
		t.Fatalf("StartConversation (repeat): %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected one thread per (item, pair), got %d and %d", first.ID, second.ID)
	}

	// The pair is stored in canonical order.
	if first.UserLoID >= first.UserHiID {
		t.Errorf("expected user_lo_id < user_hi_id, got %d and %d", first.UserLoID, first.UserHiID)
	}
	if first.StartedBy != finder.ID {
		t.Errorf("expected started_by %d, got %d", finder.ID, first.StartedBy)
	}
}

func TestStartConversationRejections(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := createTestUser(t, database, "poster@campus.edu")
	item := createTestItem(t, database, poster.ID, model.ItemTypeFound, "Scarf")

	if _, err := StartConversation(ctx, database, item.ID, poster.ID); !errors.Is(err, ErrSelfConversation) {
		t.Errorf("expected ErrSelfConversation, got %v", err)
	}
	if _, err := StartConversation(ctx, database, 9999, poster.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestMessagesAndUnreadCounts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := createTestUser(t, database, "poster@campus.edu")
	finder := createTestUser(t, database, "finder@campus.edu")
	item := createTestItem(t, database, poster.ID, model.ItemTypeLost, "Laptop Charger")

	conv, _ := StartConversation(ctx, database, item.ID, finder.ID)

	msg, err := CreateMessage(ctx, database, conv.ID, finder.ID, "Is this still missing?")
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.IsRead {
		t.Error("expected new message to start unread")
	}
	CreateMessage(ctx, database, conv.ID, finder.ID, "I might have seen it in the lab")

	// Both messages are unread for the poster, none for the sender.
	unread, err := CountUnreadMessages(ctx, database, poster.ID)
	if err != nil {
		t.Fatalf("CountUnreadMessages: %v", err)
	}
	if unread != 2 {
		t.Errorf("expected 2 unread messages for poster, got %d", unread)
	}
	senderUnread, _ := CountUnreadMessages(ctx, database, finder.ID)
	if senderUnread != 0 {
		t.Errorf("expected 0 unread messages for sender, got %d", senderUnread)
	}

	msgs, err := ListMessages(ctx, database, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "Is this still missing?" {
		t.Errorf("expected oldest message first, got %q", msgs[0].Content)
	}
	if msgs[0].SenderName != "Test User" {
		t.Errorf("expected sender name joined in, got %q", msgs[0].SenderName)
	}

	// Opening the thread clears the badge.
	if err := MarkConversationRead(ctx, database, conv.ID, poster.ID); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	unread, _ = CountUnreadMessages(ctx, database, poster.ID)
	if unread != 0 {
		t.Errorf("expected 0 unread after reading, got %d", unread)
	}
}

func TestListConversations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := createTestUser(t, database, "poster@campus.edu")
	finder := createTestUser(t, database, "finder@campus.edu")
	bystander := createTestUser(t, database, "bystander@campus.edu")
	item := createTestItem(t, database, poster.ID, model.ItemTypeLost, "Notebook")

	conv, _ := StartConversation(ctx, database, item.ID, finder.ID)
	CreateMessage(ctx, database, conv.ID, finder.ID, "Hello there")

	convs, err := ListConversations(ctx, database, poster.ID)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	if convs[0].ItemTitle != "Notebook" {
		t.Errorf("expected item title joined in, got %q", convs[0].ItemTitle)
	}
	if convs[0].LastMessage != "Hello there" {
		t.Errorf("expected last message preview, got %q", convs[0].LastMessage)
	}
	if convs[0].UnreadCount != 1 {
		t.Errorf("expected unread count 1, got %d", convs[0].UnreadCount)
	}

	none, _ := ListConversations(ctx, database, bystander.ID)
	if len(none) != 0 {
		t.Errorf("expected no conversations for bystander, got %d", len(none))
	}

	count, _ := CountConversations(ctx, database, finder.ID)
	if count != 1 {
		t.Errorf("expected conversation count 1, got %d", count)
	}
}
