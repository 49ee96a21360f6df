package services

import (
	"context"
	"errors"
	"log"
	"time"

	"academy-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// refreshSkew refreshes tokens slightly before their stated expiry so a check
// started near the boundary does not run with a dead token.
const refreshSkew = 60 * time.Second

// TokenManager owns the per-user social credential lifecycle: at most one
// active account per user, and a valid bearer token on demand.
type TokenManager struct {
	DB      *gorm.DB
	Twitter SocialGraphClient
}

func NewTokenManager(db *gorm.DB, twitter SocialGraphClient) *TokenManager {
	return &TokenManager{DB: db, Twitter: twitter}
}

// ActiveAccount returns the user's active (not soft-revoked) account.
func (m *TokenManager) ActiveAccount(userID string) (*models.TwitterAccount, error) {
	var acct models.TwitterAccount
	err := m.DB.Where("user_id = ? AND disconnected_at IS NULL", userID).
		Order("created_at DESC").
		First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ExternalAuth("no linked social account", nil)
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// EnsureFreshToken returns a usable bearer token for the account, refreshing
// and persisting it when expired. Concurrent refreshes for the same account
// are tolerated — last writer wins on the stored token.
func (m *TokenManager) EnsureFreshToken(ctx context.Context, acct *models.TwitterAccount) (string, error) {
	if time.Now().Add(refreshSkew).Before(acct.ExpiresAt) {
		return acct.AccessToken, nil
	}

	grant, err := m.Twitter.RefreshToken(ctx, acct.RefreshToken)
	if err != nil {
		return "", err
	}

	acct.AccessToken = grant.AccessToken
	acct.ExpiresAt = time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	if grant.RefreshToken != "" {
		acct.RefreshToken = grant.RefreshToken
	}
	if err := m.DB.Save(acct).Error; err != nil {
		return "", err
	}

	log.Printf("[TOKEN] 🔄 Refreshed social token for user %s (expires %s)",
		acct.UserID, acct.ExpiresAt.Format(time.RFC3339))
	return acct.AccessToken, nil
}

// Connect links a social account, soft-revoking any previously active one so
// the at-most-one-active invariant holds.
func (m *TokenManager) Connect(userID, twitterUserID, accessToken, refreshToken string, expiresIn int) (*models.TwitterAccount, error) {
	var acct *models.TwitterAccount
	err := m.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.TwitterAccount{}).
			Where("user_id = ? AND disconnected_at IS NULL", userID).
			Update("disconnected_at", now).Error; err != nil {
			return err
		}

		acct = &models.TwitterAccount{
			ID:            uuid.NewString(),
			UserID:        userID,
			TwitterUserID: twitterUserID,
			AccessToken:   accessToken,
			RefreshToken:  refreshToken,
			ExpiresAt:     now.Add(time.Duration(expiresIn) * time.Second),
		}
		return tx.Create(acct).Error
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// Disconnect soft-revokes the active account. Disconnecting when nothing is
// linked is a no-op.
func (m *TokenManager) Disconnect(userID string) error {
	now := time.Now()
	return m.DB.Model(&models.TwitterAccount{}).
		Where("user_id = ? AND disconnected_at IS NULL", userID).
		Update("disconnected_at", now).Error
}
