package services

import (
	"context"
	"testing"
	"time"

	"academy-reward-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveAccountMissing(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)

	_, err := e.tokens.ActiveAccount(user.ID)
	assert.Equal(t, KindExternalAuth, KindOf(err))
}

func TestEnsureFreshTokenSkipsRefreshWhileValid(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	e.linkTwitter(t, user.ID)

	acct, err := e.tokens.ActiveAccount(user.ID)
	require.NoError(t, err)

	token, err := e.tokens.EnsureFreshToken(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, "access-token", token)
	assert.Zero(t, e.twitter.refreshCalls)
}

func TestEnsureFreshTokenRefreshesAndPersists(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	acct := e.linkTwitter(t, user.ID)

	// Expire the stored token.
	require.NoError(t, e.db.Model(&models.TwitterAccount{}).
		Where("id = ?", acct.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)
	e.twitter.grant = &TokenGrant{
		AccessToken:  "fresh-token",
		ExpiresIn:    7200,
		RefreshToken: "rotated-refresh",
	}

	loaded, err := e.tokens.ActiveAccount(user.ID)
	require.NoError(t, err)
	token, err := e.tokens.EnsureFreshToken(context.Background(), loaded)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, 1, e.twitter.refreshCalls)

	var stored models.TwitterAccount
	require.NoError(t, e.db.First(&stored, "id = ?", acct.ID).Error)
	assert.Equal(t, "fresh-token", stored.AccessToken)
	assert.Equal(t, "rotated-refresh", stored.RefreshToken)
	assert.True(t, stored.ExpiresAt.After(time.Now().Add(time.Hour)))
}

func TestEnsureFreshTokenKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	acct := e.linkTwitter(t, user.ID)

	require.NoError(t, e.db.Model(&models.TwitterAccount{}).
		Where("id = ?", acct.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)
	e.twitter.grant = &TokenGrant{AccessToken: "fresh-token", ExpiresIn: 7200}

	loaded, err := e.tokens.ActiveAccount(user.ID)
	require.NoError(t, err)
	_, err = e.tokens.EnsureFreshToken(context.Background(), loaded)
	require.NoError(t, err)

	var stored models.TwitterAccount
	require.NoError(t, e.db.First(&stored, "id = ?", acct.ID).Error)
	assert.Equal(t, "refresh-token", stored.RefreshToken)
}

func TestEnsureFreshTokenSurfacesAuthFailure(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	acct := e.linkTwitter(t, user.ID)

	require.NoError(t, e.db.Model(&models.TwitterAccount{}).
		Where("id = ?", acct.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)
	e.twitter.refreshErr = ExternalAuth("social credential rejected", nil)

	loaded, err := e.tokens.ActiveAccount(user.ID)
	require.NoError(t, err)
	_, err = e.tokens.EnsureFreshToken(context.Background(), loaded)
	assert.Equal(t, KindExternalAuth, KindOf(err))
}

func TestConnectEnforcesOneActiveAccount(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)

	first := e.linkTwitter(t, user.ID)
	second, err := e.tokens.Connect(user.ID, "tw-second", "token-2", "refresh-2", 3600)
	require.NoError(t, err)

	var active []models.TwitterAccount
	require.NoError(t, e.db.Where("user_id = ? AND disconnected_at IS NULL", user.ID).
		Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	var old models.TwitterAccount
	require.NoError(t, e.db.First(&old, "id = ?", first.ID).Error)
	assert.NotNil(t, old.DisconnectedAt)
}

func TestDisconnectSoftRevokes(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t)
	e.linkTwitter(t, user.ID)

	require.NoError(t, e.tokens.Disconnect(user.ID))

	_, err := e.tokens.ActiveAccount(user.ID)
	assert.Equal(t, KindExternalAuth, KindOf(err))

	// Disconnecting again is a no-op.
	require.NoError(t, e.tokens.Disconnect(user.ID))
}
