package model

import "time"

// Review is feedback left by the claimant after an item was returned.
// At most one review per (item, reviewer) pair.
type Review struct {
	ID           int64     `json:"id"`
	ItemID       int64     `json:"item_id"`
	ReviewerID   int64     `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
