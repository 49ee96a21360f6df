package models

import "time"

// TaskFeedback stores the free-text submission that LEAVE_FEEDBACK tasks
// verify against. Verification requires at least 100 characters.
type TaskFeedback struct {
	ID                 string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID             string `gorm:"index:idx_feedback_user_task;not null" json:"user_id"`
	VerificationTaskID string `gorm:"index:idx_feedback_user_task;not null" json:"verification_task_id"`
	Content            string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
