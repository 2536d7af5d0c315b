package store

import "errors"

// Sentinel errors for user-facing rejections. Handlers map these to flash
// messages or HTTP statuses; anything else is an internal error.
var (
	ErrItemNotFound = errors.New("item not found")

	// Claim rejections.
	ErrOwnItemClaim   = errors.New("cannot claim your own item")
	ErrAlreadyClaimed = errors.New("item already claimed")

	// Mark-returned rejections.
	ErrNotPoster       = errors.New("only the poster can do this")
	ErrAlreadyReturned = errors.New("item already returned")

	// Review rejections.
	ErrNotClaimant     = errors.New("only the claimant can review this item")
	ErrNotReturned     = errors.New("item has not been returned yet")
	ErrAlreadyReviewed = errors.New("item already reviewed")

	// Conversation rejections.
	ErrSelfConversation = errors.New("cannot start a conversation about your own item")
)
