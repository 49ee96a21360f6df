package models

import "time"

// UserVerification is one attempt at a task by a user, optionally scoped to an
// academy. At most one open (unverified) attempt exists per
// (user, task, academy) lineage; rows are never hard-deleted.
type UserVerification struct {
	ID                 string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID             string  `gorm:"index:idx_user_task;not null" json:"user_id"`
	VerificationTaskID string  `gorm:"index:idx_user_task;not null" json:"verification_task_id"`
	AcademyID          *string `gorm:"index" json:"academy_id,omitempty"`

	Verified      bool       `gorm:"default:false" json:"verified"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ShortCircuit  bool       `gorm:"default:false" json:"short_circuit"` // per-attempt override
	PointsAwarded int64      `gorm:"default:0" json:"points_awarded"`

	// Login-streak bookkeeping (repeated daily-login tasks only)
	StreakCount   int        `gorm:"default:0" json:"streak_count"`
	LastLoginDate *time.Time `json:"last_login_date,omitempty"`

	// Attempt-scoped parameter overrides resolved at start time (e.g. the
	// academy name bound as the expected tweet keyword).
	Parameters map[string]string `gorm:"serializer:json" json:"parameters,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"` // attempt start
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
