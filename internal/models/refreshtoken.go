package models

import "time"

type RefreshToken struct {
	Token     string `gorm:"primarykey"`
	UserID    uint   `gorm:"index"` // with index, user easy to find all refresh token them have
	User      User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer usable at the given
// instant. Once true for some now, it stays true for every later now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
