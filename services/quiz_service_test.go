package services

import (
	"testing"

	"academy-reward-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quizFixture struct {
	academy   models.Academy
	questions []models.QuizQuestion
	correct   map[string]string // question id -> correct choice id
	wrong     map[string]string // question id -> a wrong choice id
}

func seedQuiz(t *testing.T, e *testEngine, questionXP ...int64) quizFixture {
	t.Helper()

	fx := quizFixture{
		academy: models.Academy{ID: uuid.NewString(), Name: "Go Basics"},
		correct: map[string]string{},
		wrong:   map[string]string{},
	}
	require.NoError(t, e.db.Create(&fx.academy).Error)

	for _, xp := range questionXP {
		q := models.QuizQuestion{
			ID:        uuid.NewString(),
			AcademyID: fx.academy.ID,
			Text:      "Question",
			XP:        xp,
		}
		require.NoError(t, e.db.Create(&q).Error)
		fx.questions = append(fx.questions, q)

		right := models.QuizChoice{ID: uuid.NewString(), QuestionID: q.ID, Text: "right", Correct: true}
		wrong := models.QuizChoice{ID: uuid.NewString(), QuestionID: q.ID, Text: "wrong"}
		require.NoError(t, e.db.Create(&right).Error)
		require.NoError(t, e.db.Create(&wrong).Error)
		fx.correct[q.ID] = right.ID
		fx.wrong[q.ID] = wrong.ID
	}
	return fx
}

func TestSubmitAnswerCorrectFullCredit(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	fx := seedQuiz(t, e, 100)
	q := fx.questions[0]

	result, err := e.quiz.SubmitAnswer(user.ID, q.ID, fx.correct[q.ID], 30)
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, int64(100), result.PointsAwarded)
	assert.Empty(t, result.CorrectChoiceID)

	// Answer XP is recorded, not credited — the finish pays the total.
	var got models.User
	require.NoError(t, e.db.First(&got, "id = ?", user.ID).Error)
	assert.Zero(t, got.PointCount)
}

func TestSubmitAnswerDecaysWithClock(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	fx := seedQuiz(t, e, 100)
	q := fx.questions[0]

	result, err := e.quiz.SubmitAnswer(user.ID, q.ID, fx.correct[q.ID], 0)
	require.NoError(t, err)
	assert.Equal(t, int64(25), result.PointsAwarded)
}

func TestSubmitAnswerWrongRevealsCorrectChoice(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	fx := seedQuiz(t, e, 100)
	q := fx.questions[0]

	result, err := e.quiz.SubmitAnswer(user.ID, q.ID, fx.wrong[q.ID], 30)
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Zero(t, result.PointsAwarded)
	assert.Equal(t, fx.correct[q.ID], result.CorrectChoiceID)
}

func TestSubmitAnswerTwiceConflicts(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	fx := seedQuiz(t, e, 100)
	q := fx.questions[0]

	_, err := e.quiz.SubmitAnswer(user.ID, q.ID, fx.correct[q.ID], 30)
	require.NoError(t, err)

	_, err = e.quiz.SubmitAnswer(user.ID, q.ID, fx.wrong[q.ID], 30)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestSubmitAnswerUnknownChoice(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	fx := seedQuiz(t, e, 100)

	_, err := e.quiz.SubmitAnswer(user.ID, fx.questions[0].ID, uuid.NewString(), 30)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestFinishQuizCreditsTotalsOnce(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	fx := seedQuiz(t, e, 100, 100, 50)

	// Two correct at full credit, one wrong.
	q0, q1, q2 := fx.questions[0], fx.questions[1], fx.questions[2]
	_, err := e.quiz.SubmitAnswer(user.ID, q0.ID, fx.correct[q0.ID], 30)
	require.NoError(t, err)
	_, err = e.quiz.SubmitAnswer(user.ID, q1.ID, fx.correct[q1.ID], 30)
	require.NoError(t, err)
	_, err = e.quiz.SubmitAnswer(user.ID, q2.ID, fx.wrong[q2.ID], 30)
	require.NoError(t, err)

	result, err := e.quiz.FinishQuiz(user.ID, fx.academy.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), result.TotalPoints)
	assert.Equal(t, int64(2), result.RafflesEarned)
	assert.Equal(t, int64(2), result.CorrectAnswers)
	assert.Equal(t, int64(3), result.TotalQuestions)

	var got models.User
	require.NoError(t, e.db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, int64(200), got.PointCount)
	assert.Equal(t, int64(2), got.RaffleAmount)

	// Exactly one terminal ledger entry for the academy.
	var finishCount int64
	require.NoError(t, e.db.Model(&models.Point{}).
		Where("user_id = ? AND academy_id = ? AND description = ?", user.ID, fx.academy.ID, QuizFinishDescription).
		Count(&finishCount).Error)
	assert.Equal(t, int64(1), finishCount)

	// Finishing again conflicts and credits nothing more.
	_, err = e.quiz.FinishQuiz(user.ID, fx.academy.ID)
	assert.Equal(t, KindConflict, KindOf(err))

	require.NoError(t, e.db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, int64(200), got.PointCount)
}

func TestFinishQuizUnknownAcademy(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)

	_, err := e.quiz.FinishQuiz(user.ID, uuid.NewString())
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestFinishQuizWithNoAnswersCreditsZero(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	fx := seedQuiz(t, e, 100)

	result, err := e.quiz.FinishQuiz(user.ID, fx.academy.ID)
	require.NoError(t, err)
	assert.Zero(t, result.TotalPoints)
	assert.Zero(t, result.RafflesEarned)
	assert.Equal(t, int64(1), result.TotalQuestions)
}
