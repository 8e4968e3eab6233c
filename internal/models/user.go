package models

import "time"

// AppUser is a phone-authenticated user. The ID is the hex HMAC-SHA256
// digest of the normalized phone number, so the same phone always resolves
// to the same document.
type AppUser struct {
	ID           string    `json:"id"`
	PhoneHash    string    `json:"phone_hash"`
	Reputation   int       `json:"reputation"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
	TokenVersion int       `json:"token_version"`
}
