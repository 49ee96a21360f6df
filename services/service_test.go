package services

import (
	"context"
	"fmt"
	"testing"

	"academy-reward-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory store with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Academy{},
		&models.VerificationTask{},
		&models.UserVerification{},
		&models.Point{},
		&models.Raffle{},
		&models.CharacterLevel{},
		&models.TwitterAccount{},
		&models.Notification{},
		&models.QuizQuestion{},
		&models.QuizChoice{},
		&models.UserQuizAnswer{},
		&models.TaskFeedback{},
	))
	return db
}

// testEngine wires the full service graph over a test store and a fake social
// client.
type testEngine struct {
	db      *gorm.DB
	twitter *fakeTwitter
	tokens  *TokenManager
	verify  *VerificationService
	levels  *LevelService
	reward  *RewardService
	tasks   *TaskService
	quiz    *QuizService
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	db := newTestDB(t)
	twitter := &fakeTwitter{}
	tokens := NewTokenManager(db, twitter)
	verify := NewVerificationService(db, twitter, tokens)
	levels := NewLevelService(db)
	reward := NewRewardService(db, levels)
	levels.Reward = reward

	return &testEngine{
		db:      db,
		twitter: twitter,
		tokens:  tokens,
		verify:  verify,
		levels:  levels,
		reward:  reward,
		tasks:   NewTaskService(db, verify, reward),
		quiz:    NewQuizService(db, reward),
	}
}

func (e *testEngine) createUser(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.NewString(), Username: "learner"}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEngine) createTask(t *testing.T, task models.VerificationTask) *models.VerificationTask {
	t.Helper()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.TaskType == "" {
		task.TaskType = models.TaskTypePlatformSpecific
	}
	if task.IntervalType == "" {
		task.IntervalType = models.IntervalOneTime
	}
	require.NoError(t, e.db.Create(&task).Error)
	return &task
}

func (e *testEngine) linkTwitter(t *testing.T, userID string) *models.TwitterAccount {
	t.Helper()
	acct, err := e.tokens.Connect(userID, "tw-"+userID, "access-token", "refresh-token", 3600)
	require.NoError(t, err)
	return acct
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// fakeTwitter is a scriptable SocialGraphClient.
type fakeTwitter struct {
	resolveIDs map[string]string
	resolveErr error

	followingPages [][]SocialUser
	alwaysNext     bool // provider that never stops returning a cursor
	followingErr   error
	followingCalls int

	posts    []SocialPost
	postsErr error

	profile    *SocialProfile
	profileErr error

	grant        *TokenGrant
	refreshErr   error
	refreshCalls int
}

func (f *fakeTwitter) ResolveUserID(ctx context.Context, accessToken, username string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	if id, ok := f.resolveIDs[username]; ok {
		return id, nil
	}
	return "", NotFound("social user %q not found", username)
}

func (f *fakeTwitter) ListFollowing(ctx context.Context, accessToken, userID, cursor string) ([]SocialUser, string, error) {
	f.followingCalls++
	if f.followingErr != nil {
		return nil, "", f.followingErr
	}
	if f.alwaysNext {
		return []SocialUser{{ID: "nobody", Username: "nobody"}}, "next", nil
	}
	page := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "p%d", &page)
	}
	if page >= len(f.followingPages) {
		return nil, "", nil
	}
	next := ""
	if page+1 < len(f.followingPages) {
		next = fmt.Sprintf("p%d", page+1)
	}
	return f.followingPages[page], next, nil
}

func (f *fakeTwitter) ListRecentPosts(ctx context.Context, accessToken, userID string) ([]SocialPost, error) {
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	return f.posts, nil
}

func (f *fakeTwitter) GetProfile(ctx context.Context, accessToken string) (*SocialProfile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeTwitter) RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.grant, nil
}
