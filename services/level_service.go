package services

import (
	"fmt"
	"log"

	"academy-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LevelService maps a user's cumulative point count to a character level tier
// and pays the one-time tier bonus on transitions.
type LevelService struct {
	DB     *gorm.DB
	Reward *RewardService // set by wiring; used for the tier bonus credit
}

func NewLevelService(db *gorm.DB) *LevelService {
	return &LevelService{DB: db}
}

// EvaluateTx re-derives the user's tier from PointCount inside the caller's
// transaction. Tiers are scanned ascending by MinPoints and the last matching
// range wins — if ranges overlap this keeps the literal historical behavior
// rather than a tightest-match rule. Same-tier matches are a no-op so the
// bonus is paid at most once per transition.
//
// The bonus credit itself can push PointCount into a still-higher tier; that
// is settled by the next triggering event, not by looping here.
func (s *LevelService) EvaluateTx(tx *gorm.DB, userID string) error {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		return err
	}

	var tiers []models.CharacterLevel
	if err := tx.Order("min_points ASC").Find(&tiers).Error; err != nil {
		return err
	}

	var matched *models.CharacterLevel
	for i := range tiers {
		if user.PointCount >= tiers[i].MinPoints && user.PointCount <= tiers[i].MaxPoints {
			matched = &tiers[i] // last match wins
		}
	}
	if matched == nil {
		return nil
	}
	if user.CharacterLevelID != nil && *user.CharacterLevelID == matched.ID {
		return nil
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("character_level_id", matched.ID).Error; err != nil {
		return err
	}

	if matched.RewardPoints > 0 {
		if err := s.Reward.creditWithoutLevelTx(tx, userID, matched.RewardPoints, matched.Name); err != nil {
			return err
		}
	}

	notification := models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    models.NotificationTypeLevelUp,
		Message: fmt.Sprintf("You reached level %s! 🎉", matched.Name),
		Read:    false,
	}
	if err := tx.Create(&notification).Error; err != nil {
		return err
	}

	log.Printf("⬆️ [LEVEL] User %s reached %s (points=%d, bonus=%d)",
		userID, matched.Name, user.PointCount, matched.RewardPoints)
	return nil
}

// CurrentLevel returns the user's held tier, or nil when none is assigned yet.
func (s *LevelService) CurrentLevel(userID string) (*models.CharacterLevel, error) {
	var user models.User
	if err := s.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	if user.CharacterLevelID == nil {
		return nil, nil
	}
	var tier models.CharacterLevel
	if err := s.DB.Where("id = ?", *user.CharacterLevelID).First(&tier).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}
