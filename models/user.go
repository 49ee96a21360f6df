package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the engine's local view of a platform user. Identity is owned by the
// gateway/profile service; this row carries the denormalized reward caches.
// PointCount/LastWeekPointCount/RaffleAmount are caches over the Point and
// Raffle ledgers — they are only ever updated in the same transaction as a
// ledger insert.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"` // gateway user id
	Username string `gorm:"index" json:"username"`
	Email    string `json:"email,omitempty"`

	PointCount         int64 `gorm:"default:0" json:"point_count"`
	LastWeekPointCount int64 `gorm:"default:0" json:"last_week_point_count"`
	RaffleAmount       int64 `gorm:"default:0" json:"raffle_amount"`

	CharacterLevelID *string `gorm:"index" json:"character_level_id,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
