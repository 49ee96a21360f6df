package models

import "time"

const NotificationTypeLevelUp = "LEVEL_UP"

// Notification is the payload record handed to the external notification
// service. Rows are written transactionally with the event that produced them;
// the dispatch worker pushes undelivered rows to the sink and marks them.
type Notification struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string `gorm:"index;not null" json:"user_id"`
	Type    string `gorm:"not null" json:"type"`
	Message string `gorm:"not null" json:"message"`
	Read    bool   `gorm:"default:false" json:"read"`

	Dispatched   bool       `gorm:"default:false;index" json:"-"`
	DispatchedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
