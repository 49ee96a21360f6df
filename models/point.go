package models

import "time"

// Point is an immutable ledger entry — the sole source of truth for a user's
// score. User.PointCount and User.LastWeekPointCount are caches maintained in
// lock-step with inserts here. No UpdatedAt/DeletedAt: the ledger is
// append-only.
type Point struct {
	ID                 string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID             string  `gorm:"index;not null" json:"user_id"`
	Value              int64   `gorm:"not null" json:"value"`
	AcademyID          *string `gorm:"index" json:"academy_id,omitempty"`
	VerificationTaskID *string `gorm:"index" json:"verification_task_id,omitempty"`
	Description        string  `json:"description"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Raffle is an immutable ticket ledger entry, created whenever a Point insert
// of value >= 100 lands. Amount = floor(value / 100).
type Raffle struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string  `gorm:"index;not null" json:"user_id"`
	Amount      int64   `gorm:"not null" json:"amount"`
	AcademyID   *string `gorm:"index" json:"academy_id,omitempty"`
	Description string  `json:"description"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
