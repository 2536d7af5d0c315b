package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campusfound/campusfound/internal/model"
)

// StartConversation resolves or creates the single conversation between
// userID and the item's poster about the item. The user pair is stored in
// canonical order, so the same thread is found no matter who initiated it.
// Uses INSERT OR IGNORE + re-SELECT to avoid a TOCTOU race between the
// existence check and the insert.
func StartConversation(ctx context.Context, db *sql.DB, itemID, userID int64) (*model.Conversation, error) {
	item, err := GetItem(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.PosterID == userID {
		return nil, ErrSelfConversation
	}

	lo, hi := userID, item.PosterID
	if lo > hi {
		lo, hi = hi, lo
	}

	_, err = db.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversations (item_id, user_lo_id, user_hi_id, started_by)
		 VALUES (?, ?, ?, ?)`,
		itemID, lo, hi, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	conv := &model.Conversation{}
	err = db.QueryRowContext(ctx,
		`SELECT id, item_id, user_lo_id, user_hi_id, started_by, created_at, updated_at
		 FROM conversations WHERE item_id = ? AND user_lo_id = ? AND user_hi_id = ?`,
		itemID, lo, hi,
	).Scan(&conv.ID, &conv.ItemID, &conv.UserLoID, &conv.UserHiID, &conv.StartedBy,
		&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return conv, nil
}

// GetConversation returns a conversation by ID with display fields joined in.
func GetConversation(ctx context.Context, db *sql.DB, id int64) (*model.Conversation, error) {
	conv := &model.Conversation{}
	var loName, loEmail, hiName, hiEmail sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT c.id, c.item_id, c.user_lo_id, c.user_hi_id, c.started_by,
		        c.created_at, c.updated_at, i.title,
		        lo.full_name, lo.email, hi.full_name, hi.email
		 FROM conversations c
		 JOIN items i ON i.id = c.item_id
		 JOIN users lo ON lo.id = c.user_lo_id
		 JOIN users hi ON hi.id = c.user_hi_id
		 WHERE c.id = ?`, id,
	).Scan(&conv.ID, &conv.ItemID, &conv.UserLoID, &conv.UserHiID, &conv.StartedBy,
		&conv.CreatedAt, &conv.UpdatedAt, &conv.ItemTitle,
		&loName, &loEmail, &hiName, &hiEmail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	conv.UserLoName = displayName(loName, loEmail)
	conv.UserHiName = displayName(hiName, hiEmail)
	return conv, nil
}

// ListConversations returns a user's conversations, most recently updated
// first, with the latest message preview and unread count per thread.
func ListConversations(ctx context.Context, db *sql.DB, userID int64) ([]model.Conversation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.item_id, c.user_lo_id, c.user_hi_id, c.started_by,
		        c.created_at, c.updated_at, i.title,
		        lo.full_name, lo.email, hi.full_name, hi.email,
		        COALESCE((SELECT content FROM messages
		                  WHERE conversation_id = c.id
		                  ORDER BY created_at DESC, id DESC LIMIT 1), ''),
		        (SELECT COUNT(*) FROM messages
		         WHERE conversation_id = c.id AND sender_id <> ? AND is_read = 0)
		 FROM conversations c
		 JOIN items i ON i.id = c.item_id
		 JOIN users lo ON lo.id = c.user_lo_id
		 JOIN users hi ON hi.id = c.user_hi_id
		 WHERE c.user_lo_id = ? OR c.user_hi_id = ?
		 ORDER BY c.updated_at DESC, c.id DESC`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var c model.Conversation
		var loName, loEmail, hiName, hiEmail sql.NullString
		if err := rows.Scan(&c.ID, &c.ItemID, &c.UserLoID, &c.UserHiID, &c.StartedBy,
			&c.CreatedAt, &c.UpdatedAt, &c.ItemTitle,
			&loName, &loEmail, &hiName, &hiEmail,
			&c.LastMessage, &c.UnreadCount); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		c.UserLoName = displayName(loName, loEmail)
		c.UserHiName = displayName(hiName, hiEmail)
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// CountConversations returns how many conversations a user participates in.
func CountConversations(ctx context.Context, db *sql.DB, userID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE user_lo_id = ? OR user_hi_id = ?`,
		userID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting conversations: %w", err)
	}
	return count, nil
}

// CreateMessage appends a message to a conversation and bumps its updated_at,
// both in one transaction so inbox ordering stays consistent.
func CreateMessage(ctx context.Context, db *sql.DB, conversationID, senderID int64, content string) (*model.Message, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, content) VALUES (?, ?, ?)`,
		conversationID, senderID, content,
	)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		conversationID,
	); err != nil {
		return nil, fmt.Errorf("bumping conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetMessage(ctx, db, id)
}

// GetMessage returns a message by ID.
func GetMessage(ctx context.Context, db *sql.DB, id int64) (*model.Message, error) {
	m := &model.Message{}
	err := db.QueryRowContext(ctx,
		`SELECT id, conversation_id, sender_id, content, is_read, created_at
		 FROM messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}
	return m, nil
}

// ListMessages returns a conversation's messages oldest-first for thread display.
func ListMessages(ctx context.Context, db *sql.DB, conversationID int64) ([]model.Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT m.id, m.conversation_id, m.sender_id, m.content, m.is_read, m.created_at,
		        u.full_name, u.email
		 FROM messages m JOIN users u ON u.id = m.sender_id
		 WHERE m.conversation_id = ?
		 ORDER BY m.created_at ASC, m.id ASC`, conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var senderName, senderEmail sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.IsRead,
			&m.CreatedAt, &senderName, &senderEmail); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.SenderName = displayName(senderName, senderEmail)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkConversationRead marks all messages sent by the other party as read.
func MarkConversationRead(ctx context.Context, db *sql.DB, conversationID, readerID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE messages SET is_read = 1
		 WHERE conversation_id = ? AND sender_id <> ? AND is_read = 0`,
		conversationID, readerID,
	)
	if err != nil {
		return fmt.Errorf("marking conversation read: %w", err)
	}
	return nil
}

// CountUnreadMessages returns the number of unread messages addressed to the
// user across all their conversations. Feeds the inbox badge.
func CountUnreadMessages(ctx context.Context, db *sql.DB, userID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages m
		 JOIN conversations c ON c.id = m.conversation_id
		 WHERE (c.user_lo_id = ? OR c.user_hi_id = ?)
		   AND m.sender_id <> ? AND m.is_read = 0`,
		userID, userID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return count, nil
}

func displayName(fullName, email sql.NullString) string {
	if fullName.String != "" {
		return fullName.String
	}
	return email.String
}
