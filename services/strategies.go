package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"academy-reward-system/models"
	"gorm.io/gorm"
)

// DefaultExpectedBio is checked by ADD_TO_BIO tasks that configure no
// bio_text parameter.
const DefaultExpectedBio = "Learning with Academy"

// maxFollowingPages caps follow-verification pagination so a provider that
// always returns a next cursor cannot keep the request alive forever.
const maxFollowingPages = 10

// minFeedbackLength is the character floor for LEAVE_FEEDBACK verification.
const minFeedbackLength = 100

// StrategyFunc checks whether an attempt's external condition is met. It
// returns false only for a confirmed "not done yet"; transport/auth problems
// surface as typed errors so the lifecycle controller can fall back.
type StrategyFunc func(ctx context.Context, task *models.VerificationTask, attempt *models.UserVerification, user *models.User) (bool, error)

// VerificationService dispatches verification methods to strategies. All
// external-call strategies share the token manager for credential freshness.
type VerificationService struct {
	DB         *gorm.DB
	Twitter    SocialGraphClient
	Tokens     *TokenManager
	strategies map[models.VerificationMethod]StrategyFunc
}

func NewVerificationService(db *gorm.DB, twitter SocialGraphClient, tokens *TokenManager) *VerificationService {
	s := &VerificationService{DB: db, Twitter: twitter, Tokens: tokens}
	s.strategies = map[models.VerificationMethod]StrategyFunc{
		models.MethodFollowUser:     s.verifyFollowUser,
		models.MethodTweet:          s.verifyTweet,
		models.MethodMemeTweet:      s.verifyTweet, // same constraint matching, different parameters
		models.MethodRetweet:        s.verifyReference("retweeted"),
		models.MethodCommentOnTweet: s.verifyReference("replied_to"),
		models.MethodAddToBio:       s.verifyBio,
		models.MethodLeaveFeedback:  s.verifyFeedback,
		models.MethodShortCircuit:   s.verifyShortCircuit,
	}
	return s
}

// Strategy returns the strategy for a method, or a validation error for
// unknown methods.
func (s *VerificationService) Strategy(method models.VerificationMethod) (StrategyFunc, error) {
	fn, ok := s.strategies[method]
	if !ok {
		return nil, Validation("unknown verification method %q", method)
	}
	return fn, nil
}

// ShortCircuitStrategy is the fallback the lifecycle controller invokes when a
// primary strategy raises an external error.
func (s *VerificationService) ShortCircuitStrategy() StrategyFunc {
	return s.verifyShortCircuit
}

// param resolves a method parameter with attempt-scoped overrides winning over
// task configuration.
func param(task *models.VerificationTask, attempt *models.UserVerification, key string) string {
	if v, ok := attempt.Parameters[key]; ok && v != "" {
		return v
	}
	return task.Parameters[key]
}

// freshToken loads the user's active account and guarantees a live bearer
// token, refreshing through the token manager when expired.
func (s *VerificationService) freshToken(ctx context.Context, userID string) (*models.TwitterAccount, string, error) {
	acct, err := s.Tokens.ActiveAccount(userID)
	if err != nil {
		return nil, "", err
	}
	token, err := s.Tokens.EnsureFreshToken(ctx, acct)
	if err != nil {
		return nil, "", err
	}
	return acct, token, nil
}

func (s *VerificationService) verifyFollowUser(ctx context.Context, task *models.VerificationTask, attempt *models.UserVerification, user *models.User) (bool, error) {
	target := param(task, attempt, models.ParamTargetUsername)
	if target == "" {
		return false, Validation("task %s has no target_username parameter", task.ID)
	}

	acct, token, err := s.freshToken(ctx, user.ID)
	if err != nil {
		return false, err
	}

	targetID, err := s.Twitter.ResolveUserID(ctx, token, target)
	if err != nil {
		return false, err
	}

	cursor := ""
	for page := 0; page < maxFollowingPages; page++ {
		following, next, err := s.Twitter.ListFollowing(ctx, token, acct.TwitterUserID, cursor)
		if err != nil {
			return false, err
		}
		for _, f := range following {
			if f.ID == targetID {
				return true, nil
			}
		}
		if next == "" {
			return false, nil
		}
		cursor = next
	}
	// Page cap reached without finding the target.
	return false, nil
}

// verifyTweet matches the caller's recent posts against the supplied
// constraints (keyword, mention, hashtag). All supplied constraints must hold
// within the same post; absent constraints are vacuously satisfied.
func (s *VerificationService) verifyTweet(ctx context.Context, task *models.VerificationTask, attempt *models.UserVerification, user *models.User) (bool, error) {
	keyword := param(task, attempt, models.ParamKeyword)
	mention := param(task, attempt, models.ParamMention)
	hashtag := param(task, attempt, models.ParamHashtag)

	acct, token, err := s.freshToken(ctx, user.ID)
	if err != nil {
		return false, err
	}

	posts, err := s.Twitter.ListRecentPosts(ctx, token, acct.TwitterUserID)
	if err != nil {
		return false, err
	}

	for _, post := range posts {
		if postMatches(post, keyword, mention, hashtag) {
			return true, nil
		}
	}
	return false, nil
}

func postMatches(post SocialPost, keyword, mention, hashtag string) bool {
	if keyword != "" && !strings.Contains(strings.ToLower(post.Text), strings.ToLower(keyword)) {
		return false
	}
	if mention != "" {
		want := strings.ToLower(strings.TrimPrefix(mention, "@"))
		found := false
		for _, m := range post.Entities.Mentions {
			if strings.ToLower(m.Username) == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if hashtag != "" {
		want := strings.ToLower(strings.TrimPrefix(hashtag, "#"))
		found := false
		for _, h := range post.Entities.Hashtags {
			if strings.ToLower(h.Tag) == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// verifyReference covers RETWEET and COMMENT_ON_TWEET: any recent post whose
// reference list points at the configured tweet with the given type.
func (s *VerificationService) verifyReference(refType string) StrategyFunc {
	return func(ctx context.Context, task *models.VerificationTask, attempt *models.UserVerification, user *models.User) (bool, error) {
		tweetID := param(task, attempt, models.ParamTweetID)
		if tweetID == "" {
			return false, Validation("task %s has no tweet_id parameter", task.ID)
		}

		acct, token, err := s.freshToken(ctx, user.ID)
		if err != nil {
			return false, err
		}

		posts, err := s.Twitter.ListRecentPosts(ctx, token, acct.TwitterUserID)
		if err != nil {
			return false, err
		}

		for _, post := range posts {
			for _, ref := range post.ReferencedTweets {
				if ref.Type == refType && ref.ID == tweetID {
					return true, nil
				}
			}
		}
		return false, nil
	}
}

func (s *VerificationService) verifyBio(ctx context.Context, task *models.VerificationTask, attempt *models.UserVerification, user *models.User) (bool, error) {
	expected := param(task, attempt, models.ParamBioText)
	if expected == "" {
		expected = DefaultExpectedBio
	}

	_, token, err := s.freshToken(ctx, user.ID)
	if err != nil {
		return false, err
	}

	profile, err := s.Twitter.GetProfile(ctx, token)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(profile.Description), strings.ToLower(expected)), nil
}

// verifyFeedback is the one method checked against local data: a recorded
// free-text submission of at least 100 characters for (user, task).
func (s *VerificationService) verifyFeedback(ctx context.Context, task *models.VerificationTask, attempt *models.UserVerification, user *models.User) (bool, error) {
	var feedbacks []models.TaskFeedback
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND verification_task_id = ?", user.ID, task.ID).
		Find(&feedbacks).Error; err != nil {
		return false, err
	}
	for _, f := range feedbacks {
		if utf8.RuneCountInString(f.Content) >= minFeedbackLength {
			return true, nil
		}
	}
	return false, nil
}

// verifyShortCircuit passes when the attempt carries the manual override flag
// or the configured timer has elapsed since attempt start. The clock runs from
// CreatedAt — repeated failed completions do not reset it.
func (s *VerificationService) verifyShortCircuit(ctx context.Context, task *models.VerificationTask, attempt *models.UserVerification, user *models.User) (bool, error) {
	if attempt.ShortCircuit {
		return true, nil
	}
	elapsed := time.Since(attempt.CreatedAt)
	return elapsed >= time.Duration(task.ShortCircuitTimer)*time.Hour, nil
}
