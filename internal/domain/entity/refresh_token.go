package entity

import "time"

// RefreshToken is a persisted session credential. Deleting the row revokes the
// session. Rows past ExpiresAt are eligible for automatic removal.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}
