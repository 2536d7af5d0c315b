package model

import "time"

// Item represents a lost or found listing.
type Item struct {
	ID                   int64      `json:"id"`
	PosterID             int64      `json:"poster_id"`
	PosterName           string     `json:"poster_name,omitempty"`
	Type                 string     `json:"type"`
	Title                string     `json:"title"`
	Category             string     `json:"category,omitempty"`
	Location             string     `json:"location,omitempty"`
	PhotoMime            string     `json:"photo_mime,omitempty"`
	Description          string     `json:"description,omitempty"`
	DateLost             *time.Time `json:"date_lost,omitempty"`
	RewardOffered        string     `json:"reward_offered,omitempty"`
	VerificationQuestion string     `json:"verification_question,omitempty"`
	ContactPreference    string     `json:"contact_preference,omitempty"`
	PhoneNumber          string     `json:"phone_number,omitempty"`
	Email                string     `json:"email,omitempty"`
	Status               string     `json:"status"`
	ClaimedBy            *int64     `json:"claimed_by,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Item types.
const (
	ItemTypeLost  = "lost"
	ItemTypeFound = "found"
)

// Item statuses. The lifecycle is active → claimed → returned, with
// active → returned allowed when the poster skips the claim step.
const (
	ItemStatusActive   = "active"
	ItemStatusClaimed  = "claimed"
	ItemStatusReturned = "returned"
)

// Categories selectable when posting an item.
var Categories = []string{
	"Electronics",
	"Keys",
	"Books",
	"Clothing",
	"ID/Cards",
	"Bags",
	"Other",
}

// Contact preferences. Stored as posted; display hints only, the contact
// channel actually shown is derived from the phone/email fields.
const (
	ContactPrefEmail = "email"
	ContactPrefPhone = "phone"
	ContactPrefChat  = "chat"
)

// ValidType reports whether t is a known item type.
func ValidType(t string) bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// ValidCategory reports whether c is a known category (empty is allowed).
func ValidCategory(c string) bool {
	if c == "" {
		return true
	}
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
