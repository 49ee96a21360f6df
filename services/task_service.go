// academy-reward-system/services/task_service.go
package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"academy-reward-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TaskService is the task lifecycle controller: it decides whether an attempt
// may start, drives verification on completion, and hands confirmed
// completions to the reward ledger.
type TaskService struct {
	DB       *gorm.DB
	Verifier *VerificationService
	Reward   *RewardService
}

func NewTaskService(db *gorm.DB, verifier *VerificationService, reward *RewardService) *TaskService {
	return &TaskService{DB: db, Verifier: verifier, Reward: reward}
}

// CompleteResult is the payload returned to the task interface on success.
type CompleteResult struct {
	Message       string `json:"message"`
	PointsAwarded int64  `json:"points_awarded"`
}

// TaskState is the derived per-user lifecycle state used by the listing.
type TaskState string

const (
	StateNotStarted TaskState = "NOT_STARTED"
	StateStarted    TaskState = "STARTED"
	StateVerified   TaskState = "VERIFIED"
	StateCooldown   TaskState = "COOLDOWN"
)

type TaskWithState struct {
	models.VerificationTask
	State       TaskState  `json:"state"`
	AvailableAt *time.Time `json:"available_at,omitempty"`
}

// resolveScope normalizes the caller-supplied academy scope against the task's
// owner. Platform tasks always use the nil scope — a caller-supplied academy id
// must not open a separate attempt lineage for them. Academy tasks require the
// matching academy.
func resolveScope(task *models.VerificationTask, academyID *string) (*string, error) {
	if task.AcademyID == nil {
		return nil, nil
	}
	if academyID == nil || *academyID != *task.AcademyID {
		return nil, Validation("task %s belongs to a different academy", task.ID)
	}
	return academyID, nil
}

// lineageQuery scopes to the (user, task, academy) attempt lineage. A nil
// academy matches only academy-less attempts.
func lineageQuery(db *gorm.DB, userID, taskID string, academyID *string) *gorm.DB {
	q := db.Where("user_id = ? AND verification_task_id = ?", userID, taskID)
	if academyID == nil {
		return q.Where("academy_id IS NULL")
	}
	return q.Where("academy_id = ?", *academyID)
}

func (s *TaskService) latestAttempt(userID, taskID string, academyID *string) (*models.UserVerification, error) {
	var attempt models.UserVerification
	err := lineageQuery(s.DB, userID, taskID, academyID).
		Order("created_at DESC").
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (s *TaskService) loadTask(taskID string) (*models.VerificationTask, error) {
	var task models.VerificationTask
	if err := s.DB.Where("id = ?", taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("task %s not found", taskID)
		}
		return nil, err
	}
	return &task, nil
}

// StartTask opens a fresh attempt when the lifecycle allows it. ONETIME tasks
// block once verified; REPEATED tasks block while an attempt is open or the
// cooldown has not elapsed. Method parameters are resolved and captured on the
// attempt at start time.
func (s *TaskService) StartTask(taskID, userID string, academyID *string) (*models.UserVerification, error) {
	task, err := s.loadTask(taskID)
	if err != nil {
		return nil, err
	}
	academyID, err = resolveScope(task, academyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Reward.EnsureUser(userID); err != nil {
		return nil, err
	}

	last, err := s.latestAttempt(userID, taskID, academyID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		switch task.IntervalType {
		case models.IntervalOneTime:
			if last.Verified {
				return nil, Conflict("task already completed")
			}
			return nil, Conflict("task already started")
		case models.IntervalRepeated:
			if !last.Verified {
				return nil, Conflict("task already started")
			}
			if task.RepeatInterval == nil {
				return nil, Validation("repeated task %s has no repeat interval", taskID)
			}
			availableAt := last.CompletedAt.AddDate(0, 0, *task.RepeatInterval)
			if time.Now().Before(availableAt) {
				return nil, Conflict("task not yet available, retry after %s",
					availableAt.Format(time.RFC3339))
			}
		}
	}

	attempt := &models.UserVerification{
		ID:                 uuid.NewString(),
		UserID:             userID,
		VerificationTaskID: taskID,
		AcademyID:          academyID,
	}
	if params, err := s.resolveStartParameters(task, academyID); err != nil {
		return nil, err
	} else if len(params) > 0 {
		attempt.Parameters = params
	}

	if err := s.DB.Create(attempt).Error; err != nil {
		return nil, err
	}
	log.Printf("▶️ [TASK] User %s started task %s (attempt %s)", userID, task.Name, attempt.ID)
	return attempt, nil
}

// resolveStartParameters binds attempt-scoped overrides. Academy-scoped tweet
// tasks with no configured keyword expect the academy's name, slugified so it
// survives hashtag/keyword matching.
func (s *TaskService) resolveStartParameters(task *models.VerificationTask, academyID *string) (map[string]string, error) {
	isTweet := task.VerificationMethod == models.MethodTweet ||
		task.VerificationMethod == models.MethodMemeTweet
	if !isTweet || academyID == nil || task.Parameters[models.ParamKeyword] != "" {
		return nil, nil
	}

	var academy models.Academy
	if err := s.DB.Where("id = ?", *academyID).First(&academy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("academy %s not found", *academyID)
		}
		return nil, err
	}
	return map[string]string{models.ParamKeyword: slug.Make(academy.Name)}, nil
}

// CompleteTask runs the matched strategy and, on success, marks the attempt
// verified and credits the reward in one transaction. External auth/transient
// failures fall back to the short-circuit path when the task allows it.
func (s *TaskService) CompleteTask(ctx context.Context, taskID, userID string, academyID *string) (*CompleteResult, error) {
	task, err := s.loadTask(taskID)
	if err != nil {
		return nil, err
	}
	academyID, err = resolveScope(task, academyID)
	if err != nil {
		return nil, err
	}
	user, err := s.Reward.EnsureUser(userID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.latestAttempt(userID, taskID, academyID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, Validation("task not started")
	}
	if attempt.Verified {
		return nil, Conflict("task already verified")
	}

	strategy, err := s.Verifier.Strategy(task.VerificationMethod)
	if err != nil {
		return nil, err
	}

	verified, verr := strategy(ctx, task, attempt, user)
	if verr != nil {
		verified, verr = s.shortCircuitFallback(task, attempt, verr)
		if verr != nil {
			return nil, verr
		}
	}
	if !verified {
		return nil, Validation("task completion could not be verified")
	}

	if err := s.finalizeAttempt(task, attempt, academyID); err != nil {
		return nil, err
	}
	return &CompleteResult{
		Message:       "Task verified",
		PointsAwarded: task.XP,
	}, nil
}

// shortCircuitFallback handles a primary strategy raising an external error.
// It passes when the attempt carries a manual short-circuit flag or the timer
// has elapsed since attempt start; the flag is persisted on success so the
// record shows the completion was short-circuited rather than externally
// confirmed. A still-running timer is recoverable: the flag stays off, the
// attempt stays open and the caller retries later — retries do not reset the
// clock.
func (s *TaskService) shortCircuitFallback(task *models.VerificationTask, attempt *models.UserVerification, cause error) (bool, error) {
	kind := KindOf(cause)
	fallbackable := kind == KindExternalAuth || kind == KindExternalTransient
	if !fallbackable || !task.ShortCircuit {
		return false, cause
	}

	if !attempt.ShortCircuit && !shortCircuitTimerElapsed(task, attempt) {
		return false, ExternalTransient("verification unavailable, retry later", cause)
	}

	log.Printf("⚡ [TASK] Short-circuit fallback engaged for attempt %s (cause: %v)", attempt.ID, cause)

	if !attempt.ShortCircuit {
		attempt.ShortCircuit = true
		if err := s.DB.Model(attempt).Update("short_circuit", true).Error; err != nil {
			return false, err
		}
	}
	return true, nil
}

func shortCircuitTimerElapsed(task *models.VerificationTask, attempt *models.UserVerification) bool {
	// Measured from attempt start; failed retries do not reset the clock.
	return time.Since(attempt.CreatedAt) >= time.Duration(task.ShortCircuitTimer)*time.Hour
}

// finalizeAttempt marks the attempt verified and credits the reward as one
// unit. The verified re-check runs inside the transaction so a concurrent
// completion resolves to "already rewarded" instead of double credit.
func (s *TaskService) finalizeAttempt(task *models.VerificationTask, attempt *models.UserVerification, academyID *string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var current models.UserVerification
		if err := tx.Where("id = ?", attempt.ID).First(&current).Error; err != nil {
			return err
		}
		if current.Verified {
			return nil // lost the race; the winner already credited
		}

		now := time.Now()
		current.Verified = true
		current.CompletedAt = &now
		current.PointsAwarded = task.XP
		s.applyStreak(tx, task, &current, now)

		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		return s.Reward.CreditTx(tx, current.UserID, task.XP, academyID, &task.ID, task.Name)
	})
}

// applyStreak maintains the consecutive-completion counter for repeated
// tasks. The streak continues when the previous verified attempt completed
// within one interval (plus a day of slack), otherwise it restarts at 1.
func (s *TaskService) applyStreak(tx *gorm.DB, task *models.VerificationTask, attempt *models.UserVerification, now time.Time) {
	if task.IntervalType != models.IntervalRepeated || task.RepeatInterval == nil {
		return
	}

	attempt.StreakCount = 1
	var prev models.UserVerification
	err := lineageQuery(tx, attempt.UserID, attempt.VerificationTaskID, attempt.AcademyID).
		Where("verified = ? AND id <> ?", true, attempt.ID).
		Order("completed_at DESC").
		First(&prev).Error
	if err == nil && prev.CompletedAt != nil {
		window := time.Duration(*task.RepeatInterval+1) * 24 * time.Hour
		if now.Sub(*prev.CompletedAt) <= window {
			attempt.StreakCount = prev.StreakCount + 1
		}
	}

	if strings.EqualFold(task.Parameters[models.ParamLoginStreak], "true") {
		attempt.LastLoginDate = &now
	}
}

// ListTasks returns platform tasks plus the given academy's tasks with the
// caller's derived lifecycle state, so the UI can render start/complete
// buttons without re-implementing the rules.
func (s *TaskService) ListTasks(userID string, academyID *string) ([]TaskWithState, error) {
	q := s.DB.Order("created_at ASC")
	if academyID != nil {
		q = q.Where("academy_id IS NULL OR academy_id = ?", *academyID)
	} else {
		q = q.Where("academy_id IS NULL")
	}

	var tasks []models.VerificationTask
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}

	out := make([]TaskWithState, 0, len(tasks))
	for _, task := range tasks {
		scope := academyID
		if task.AcademyID == nil {
			scope = nil
		}
		last, err := s.latestAttempt(userID, task.ID, scope)
		if err != nil {
			return nil, err
		}

		entry := TaskWithState{VerificationTask: task, State: StateNotStarted}
		if last != nil {
			switch {
			case !last.Verified:
				entry.State = StateStarted
			case task.IntervalType == models.IntervalRepeated && task.RepeatInterval != nil:
				availableAt := last.CompletedAt.AddDate(0, 0, *task.RepeatInterval)
				if time.Now().Before(availableAt) {
					entry.State = StateCooldown
					entry.AvailableAt = &availableAt
				} else {
					entry.State = StateVerified
				}
			default:
				entry.State = StateVerified
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// SubmitFeedback records the free text a LEAVE_FEEDBACK task verifies
// against. Submission is accepted regardless of length; only texts of 100+
// characters satisfy verification.
func (s *TaskService) SubmitFeedback(taskID, userID, content string) (*models.TaskFeedback, error) {
	if strings.TrimSpace(content) == "" {
		return nil, Validation("feedback content is required")
	}
	if _, err := s.loadTask(taskID); err != nil {
		return nil, err
	}
	if _, err := s.Reward.EnsureUser(userID); err != nil {
		return nil, err
	}

	feedback := &models.TaskFeedback{
		ID:                 uuid.NewString(),
		UserID:             userID,
		VerificationTaskID: taskID,
		Content:            content,
	}
	if err := s.DB.Create(feedback).Error; err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(content) < minFeedbackLength {
		log.Printf("📝 [TASK] Feedback from %s for task %s below verification length (%d chars)",
			userID, taskID, utf8.RuneCountInString(content))
	}
	return feedback, nil
}
