package models

// TaskType scopes who a verification task belongs to
type TaskType string

const (
	TaskTypePlatformSpecific TaskType = "PLATFORM_SPECIFIC"
	TaskTypeAcademySpecific  TaskType = "ACADEMY_SPECIFIC"
	TaskTypeContentSpecific  TaskType = "CONTENT_SPECIFIC"
)

// IntervalType controls restart eligibility
type IntervalType string

const (
	IntervalOneTime  IntervalType = "ONETIME"
	IntervalRepeated IntervalType = "REPEATED"
)

// VerificationMethod selects the strategy used to confirm completion
type VerificationMethod string

const (
	MethodFollowUser     VerificationMethod = "FOLLOW_USER"
	MethodTweet          VerificationMethod = "TWEET"
	MethodMemeTweet      VerificationMethod = "MEME_TWEET"
	MethodRetweet        VerificationMethod = "RETWEET"
	MethodCommentOnTweet VerificationMethod = "COMMENT_ON_TWEET"
	MethodAddToBio       VerificationMethod = "ADD_TO_BIO"
	MethodLeaveFeedback  VerificationMethod = "LEAVE_FEEDBACK"
	MethodShortCircuit   VerificationMethod = "SHORT_CIRCUIT"
)

// Parameter keys understood by the strategies. Values live in the task's
// Parameters map and may be overridden per attempt at start time.
const (
	ParamTargetUsername = "target_username"
	ParamTweetID        = "tweet_id"
	ParamKeyword        = "keyword"
	ParamMention        = "mention"
	ParamHashtag        = "hashtag"
	ParamBioText        = "bio_text"
	ParamLoginStreak    = "login_streak"
)

// VerificationTask is an admin-authored reward task. Rows are effectively
// immutable once user attempts reference them.
type VerificationTask struct {
	ID                 string             `gorm:"primaryKey;type:uuid" json:"id"`
	Name               string             `gorm:"not null" json:"name"`
	TaskType           TaskType           `gorm:"not null" json:"task_type"`
	IntervalType       IntervalType       `gorm:"not null;default:'ONETIME'" json:"interval_type"`
	RepeatInterval     *int               `json:"repeat_interval,omitempty"` // days, required iff REPEATED
	VerificationMethod VerificationMethod `gorm:"not null;index" json:"verification_method"`
	XP                 int64              `gorm:"not null;default:0" json:"xp"`
	ShortCircuit       bool               `gorm:"default:false" json:"short_circuit"`
	ShortCircuitTimer  int                `gorm:"default:0" json:"short_circuit_timer"` // hours since attempt start
	Parameters         map[string]string  `gorm:"serializer:json" json:"parameters,omitempty"`
	AcademyID          *string            `gorm:"index" json:"academy_id,omitempty"` // nil = platform-owned

	Timestamps
}
