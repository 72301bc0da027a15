package models

import (
	"time"

	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// Skill is one entry of the static skill catalog. The catalog is seeded at
// startup and read-only at runtime.
type Skill struct {
	Base     `bson:",inline"`
	Name     string `bson:"name" json:"name"`
	Category string `bson:"category" json:"category"`
}

// SkillProficiency records a user's best result for one skill. Score only
// ever goes up across sessions; Verified is set the first time any session
// for the skill passes and is unset only by an agent rejecting a
// proof-of-work submission.
type SkillProficiency struct {
	Base      `bson:",inline"`
	UserID    utils.SixID `bson:"user_id" json:"user_id"`
	SkillID   utils.SixID `bson:"skill_id" json:"skill_id"`
	Score     int         `bson:"score" json:"score"`
	Verified  bool        `bson:"verified" json:"verified"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
}
