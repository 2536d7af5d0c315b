package model

import "time"

// Conversation is a per-item message thread between exactly two users.
// The pair is stored canonically (UserLoID < UserHiID) so that a single
// unique index covers both directions of initiation.
type Conversation struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	UserLoID  int64     `json:"user_lo_id"`
	UserHiID  int64     `json:"user_hi_id"`
	StartedBy int64     `json:"started_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined display fields, populated by list queries.
	ItemTitle   string `json:"item_title,omitempty"`
	UserLoName  string `json:"user_lo_name,omitempty"`
	UserHiName  string `json:"user_hi_name,omitempty"`
	LastMessage string `json:"last_message,omitempty"`
	UnreadCount int    `json:"unread_count"`
}

// OtherUserID returns the participant that is not userID.
func (c Conversation) OtherUserID(userID int64) int64 {
	if c.UserLoID == userID {
		return c.UserHiID
	}
	return c.UserLoID
}

// OtherUserName returns the display name of the participant that is not userID.
func (c Conversation) OtherUserName(userID int64) string {
	if c.UserLoID == userID {
		return c.UserHiName
	}
	return c.UserLoName
}

// HasParticipant reports whether userID is part of the conversation.
func (c Conversation) HasParticipant(userID int64) bool {
	return c.UserLoID == userID || c.UserHiID == userID
}

// Message is a single message within a conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}
