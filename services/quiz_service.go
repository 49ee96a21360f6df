package services

import (
	"errors"
	"log"
	"strings"

	"academy-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuizFinishDescription marks the terminal ledger entry for an academy quiz.
// Its presence is the finished-quiz idempotency check.
const QuizFinishDescription = "Quiz completed"

// QuizService implements the quiz submission interface: time-decayed answer
// scoring and the once-per-academy finish credit.
type QuizService struct {
	DB     *gorm.DB
	Reward *RewardService
}

func NewQuizService(db *gorm.DB, reward *RewardService) *QuizService {
	return &QuizService{DB: db, Reward: reward}
}

type AnswerResult struct {
	IsCorrect       bool   `json:"is_correct"`
	PointsAwarded   int64  `json:"points_awarded"`
	CorrectChoiceID string `json:"correct_choice_id,omitempty"` // revealed on a wrong answer
}

type FinishResult struct {
	TotalPoints    int64 `json:"total_points"`
	RafflesEarned  int64 `json:"raffles_earned"`
	CorrectAnswers int64 `json:"correct_answers"`
	TotalQuestions int64 `json:"total_questions"`
}

// SubmitAnswer records one answer and reports the decayed XP it is worth. The
// same question cannot be answered twice by the same user. Scoring here and
// the UI preview share AwardedXP, so the numbers never diverge.
func (s *QuizService) SubmitAnswer(userID, questionID, choiceID string, secondsLeft int) (*AnswerResult, error) {
	if questionID == "" || choiceID == "" {
		return nil, Validation("question_id and choice_id are required")
	}

	var question models.QuizQuestion
	if err := s.DB.Where("id = ?", questionID).First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("question %s not found", questionID)
		}
		return nil, err
	}

	var choices []models.QuizChoice
	if err := s.DB.Where("question_id = ?", questionID).Find(&choices).Error; err != nil {
		return nil, err
	}
	var chosen *models.QuizChoice
	correctChoiceID := ""
	for i := range choices {
		if choices[i].ID == choiceID {
			chosen = &choices[i]
		}
		if choices[i].Correct {
			correctChoiceID = choices[i].ID
		}
	}
	if chosen == nil {
		return nil, NotFound("choice %s not found for question %s", choiceID, questionID)
	}

	if _, err := s.Reward.EnsureUser(userID); err != nil {
		return nil, err
	}

	var existing int64
	if err := s.DB.Model(&models.UserQuizAnswer{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, Conflict("question already answered")
	}

	points := int64(0)
	if chosen.Correct {
		points = int64(AwardedXP(uint(question.XP), secondsLeft))
	}

	answer := models.UserQuizAnswer{
		ID:            uuid.NewString(),
		UserID:        userID,
		QuestionID:    questionID,
		ChoiceID:      choiceID,
		Correct:       chosen.Correct,
		SecondsLeft:   secondsLeft,
		PointsAwarded: points,
	}
	if err := s.DB.Create(&answer).Error; err != nil {
		// The unique (user, question) index resolves concurrent submissions.
		if isUniqueViolation(err) {
			return nil, Conflict("question already answered")
		}
		return nil, err
	}

	result := &AnswerResult{IsCorrect: chosen.Correct, PointsAwarded: points}
	if !chosen.Correct {
		result.CorrectChoiceID = correctChoiceID
	}
	return result, nil
}

// FinishQuiz credits the sum of the user's decayed answer XP for the academy
// as one ledger entry. Finishing twice is a conflict; a concurrent duplicate
// resolves to "already rewarded" inside the transaction.
func (s *QuizService) FinishQuiz(userID, academyID string) (*FinishResult, error) {
	if academyID == "" {
		return nil, Validation("academy_id is required")
	}

	var academy models.Academy
	if err := s.DB.Where("id = ?", academyID).First(&academy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("academy %s not found", academyID)
		}
		return nil, err
	}

	if _, err := s.Reward.EnsureUser(userID); err != nil {
		return nil, err
	}

	finished, err := s.alreadyFinished(s.DB, userID, academyID)
	if err != nil {
		return nil, err
	}
	if finished {
		return nil, Conflict("quiz already finished for this academy")
	}

	var totals struct {
		TotalPoints    int64
		CorrectAnswers int64
	}
	if err := s.DB.Model(&models.UserQuizAnswer{}).
		Select("COALESCE(SUM(points_awarded), 0) AS total_points, COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END), 0) AS correct_answers").
		Joins("JOIN quiz_questions ON quiz_questions.id = user_quiz_answers.question_id").
		Where("user_quiz_answers.user_id = ? AND quiz_questions.academy_id = ?", userID, academyID).
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var totalQuestions int64
	if err := s.DB.Model(&models.QuizQuestion{}).
		Where("academy_id = ?", academyID).
		Count(&totalQuestions).Error; err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		finished, err := s.alreadyFinished(tx, userID, academyID)
		if err != nil {
			return err
		}
		if finished {
			return nil // concurrent finish already credited
		}
		return s.Reward.CreditTx(tx, userID, totals.TotalPoints, &academyID, nil, QuizFinishDescription)
	})
	if err != nil {
		return nil, err
	}

	raffles := int64(0)
	if totals.TotalPoints >= raffleThreshold {
		raffles = totals.TotalPoints / raffleThreshold
	}

	log.Printf("🎓 [QUIZ] User %s finished academy %s: %d/%d correct, %d points",
		userID, academy.Name, totals.CorrectAnswers, totalQuestions, totals.TotalPoints)

	return &FinishResult{
		TotalPoints:    totals.TotalPoints,
		RafflesEarned:  raffles,
		CorrectAnswers: totals.CorrectAnswers,
		TotalQuestions: totalQuestions,
	}, nil
}

func (s *QuizService) alreadyFinished(db *gorm.DB, userID, academyID string) (bool, error) {
	var count int64
	err := db.Model(&models.Point{}).
		Where("user_id = ? AND academy_id = ? AND verification_task_id IS NULL AND description = ?",
			userID, academyID, QuizFinishDescription).
		Count(&count).Error
	return count > 0, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
