package models

import "time"

// TwitterAccount holds a user's OAuth credential set for the social provider.
// At most one active (DisconnectedAt == nil) account exists per user; the
// token manager enforces that, not a storage constraint.
type TwitterAccount struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string `gorm:"index;not null" json:"user_id"`
	TwitterUserID string `gorm:"index;not null" json:"twitter_user_id"`

	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`

	DisconnectedAt *time.Time `gorm:"index" json:"disconnected_at,omitempty"` // soft revoke

	Timestamps
}
