package models

import "time"

// CharacterLevel is a tier bucket over cumulative point count. A user holds the
// tier whose [MinPoints, MaxPoints] range contains their PointCount. If admins
// ever configure overlapping ranges, the evaluator keeps the last match in
// ascending-MinPoints order (see services.LevelService).
type CharacterLevel struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string `gorm:"uniqueIndex;not null" json:"name"`
	MinPoints    int64  `gorm:"not null" json:"min_points"`
	MaxPoints    int64  `gorm:"not null" json:"max_points"`
	RewardPoints int64  `gorm:"not null;default:0" json:"reward_points"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// DefaultCharacterLevels seed the tier table on first boot (upserted by name).
var DefaultCharacterLevels = []CharacterLevel{
	{Name: "Novice", MinPoints: 0, MaxPoints: 499, RewardPoints: 0},
	{Name: "Apprentice", MinPoints: 500, MaxPoints: 1499, RewardPoints: 50},
	{Name: "Scholar", MinPoints: 1500, MaxPoints: 3999, RewardPoints: 100},
	{Name: "Expert", MinPoints: 4000, MaxPoints: 9999, RewardPoints: 250},
	{Name: "Master", MinPoints: 10000, MaxPoints: 1 << 40, RewardPoints: 500},
}
