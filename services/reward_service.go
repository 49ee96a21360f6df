// academy-reward-system/services/reward_service.go
package services

import (
	"log"

	"academy-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// raffleThreshold: a single credit of at least this value mints
// floor(value/100) raffle tickets alongside the points.
const raffleThreshold = 100

// RewardService is the append-only reward ledger. Every credit runs as one
// transaction: Point insert, cache bump, conditional Raffle insert, level
// evaluation. The caches on User are never touched outside this path.
type RewardService struct {
	DB     *gorm.DB
	Levels *LevelService
}

func NewRewardService(db *gorm.DB, levels *LevelService) *RewardService {
	return &RewardService{DB: db, Levels: levels}
}

// Credit performs the full reward unit for a confirmed event. Callers are
// responsible for their own idempotency pre-check (verified attempt, finished
// quiz) before invoking; the ledger does not deduplicate.
func (s *RewardService) Credit(userID string, value int64, academyID, taskID *string, description string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.creditTx(tx, userID, value, academyID, taskID, description); err != nil {
			return err
		}
		return s.Levels.EvaluateTx(tx, userID)
	})
}

// CreditTx is Credit running inside an enclosing transaction, for callers that
// need the credit atomic with their own state change (e.g. marking an attempt
// verified).
func (s *RewardService) CreditTx(tx *gorm.DB, userID string, value int64, academyID, taskID *string, description string) error {
	if err := s.creditTx(tx, userID, value, academyID, taskID, description); err != nil {
		return err
	}
	return s.Levels.EvaluateTx(tx, userID)
}

// creditTx is steps 1–3 only (ledger insert, cache bump, raffle). The level
// evaluator re-enters here for tier bonuses, which must not recurse back into
// evaluation within the same call.
func (s *RewardService) creditTx(tx *gorm.DB, userID string, value int64, academyID, taskID *string, description string) error {
	if value < 0 {
		return Validation("credit value must be non-negative, got %d", value)
	}

	point := models.Point{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Value:              value,
		AcademyID:          academyID,
		VerificationTaskID: taskID,
		Description:        description,
	}
	if err := tx.Create(&point).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"point_count":           gorm.Expr("point_count + ?", value),
			"last_week_point_count": gorm.Expr("last_week_point_count + ?", value),
		}).Error; err != nil {
		return err
	}

	if value >= raffleThreshold {
		tickets := value / raffleThreshold
		raffle := models.Raffle{
			ID:          uuid.NewString(),
			UserID:      userID,
			Amount:      tickets,
			AcademyID:   academyID,
			Description: description,
		}
		if err := tx.Create(&raffle).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("raffle_amount", gorm.Expr("raffle_amount + ?", tickets)).Error; err != nil {
			return err
		}
	}

	log.Printf("💰 [LEDGER] Credited %d points to %s (%s)", value, userID, description)
	return nil
}

// creditWithoutLevelTx exposes steps 1–3 to the level evaluator.
func (s *RewardService) creditWithoutLevelTx(tx *gorm.DB, userID string, value int64, description string) error {
	return s.creditTx(tx, userID, value, nil, nil, description)
}

// EnsureUser guarantees a reward-cache row exists for the gateway user id
// (idempotent; races resolve to the existing row).
func (s *RewardService) EnsureUser(userID string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("id = ?", userID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	user = models.User{ID: userID}
	if err := s.DB.Create(&user).Error; err != nil {
		// Lost the race — someone else created it.
		var existing models.User
		if ferr := s.DB.Where("id = ?", userID).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &user, nil
}

// RolloverWeeklyPoints zeroes the weekly window cache for all users. Invoked
// by the weekly scheduler job.
func (s *RewardService) RolloverWeeklyPoints() error {
	res := s.DB.Model(&models.User{}).
		Where("last_week_point_count <> 0").
		Update("last_week_point_count", 0)
	if res.Error != nil {
		return res.Error
	}
	log.Printf("🗓️ [LEDGER] Weekly point window rolled over for %d users", res.RowsAffected)
	return nil
}
