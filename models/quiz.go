package models

import "time"

// QuizQuestion belongs to an academy's quiz. XP is the full allocation for a
// correct answer before time decay.
type QuizQuestion struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	AcademyID string `gorm:"index;not null" json:"academy_id"`
	Text      string `gorm:"not null" json:"text"`
	XP        int64  `gorm:"not null;default:0" json:"xp"`

	Timestamps
}

type QuizChoice struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	QuestionID string `gorm:"index;not null" json:"question_id"`
	Text       string `gorm:"not null" json:"text"`
	Correct    bool   `gorm:"default:false" json:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// UserQuizAnswer records one user's answer to one question. The unique index
// is the already-answered conflict guard.
type UserQuizAnswer struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string `gorm:"uniqueIndex:idx_user_question;not null" json:"user_id"`
	QuestionID string `gorm:"uniqueIndex:idx_user_question;not null" json:"question_id"`
	ChoiceID   string `gorm:"not null" json:"choice_id"`

	Correct       bool  `json:"correct"`
	SecondsLeft   int   `json:"seconds_left"`
	PointsAwarded int64 `json:"points_awarded"` // decayed XP, 0 when wrong

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
