package models

import (
	"time"

	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// Role defines what a caller is allowed to do.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// TrustBreakdown is the per-category decomposition of the trust score.
// The total on the User record is always the sum of these four fields.
type TrustBreakdown struct {
	Identity   int `bson:"identity" json:"identity"`
	Skills     int `bson:"skills" json:"skills"`
	Interview  int `bson:"interview" json:"interview"`
	References int `bson:"references" json:"references"`
}

// Sum returns the total score implied by the breakdown.
func (b TrustBreakdown) Sum() int {
	return b.Identity + b.Skills + b.Interview + b.References
}

// User is the per-user verification record. The stage, rejected gate, trust
// score and breakdown are written only by the verification service; every
// stage transition bumps StageVersion so concurrent writers can detect each
// other with a compare-and-set filter.
type User struct {
	Base            `bson:",inline"`
	Name            string         `bson:"name" json:"name"`
	Email           string         `bson:"email" json:"email"`
	PasswordHash    string         `bson:"password" json:"-"`
	Role            Role           `bson:"role" json:"role"`
	Stage           Stage          `bson:"verification_stage" json:"verification_stage"`
	RejectedGate    Gate           `bson:"rejected_gate,omitempty" json:"rejected_gate,omitempty"`
	StageVersion    int64          `bson:"stage_version" json:"-"`
	IdentityProof   string         `bson:"identity_proof_ref,omitempty" json:"identity_proof_ref,omitempty"`
	ClaimedSkillIDs []utils.SixID  `bson:"claimed_skill_ids,omitempty" json:"claimed_skill_ids,omitempty"`
	TrustScore      int            `bson:"trust_score" json:"trust_score"`
	TrustBreakdown  TrustBreakdown `bson:"trust_breakdown" json:"trust_breakdown"`
	CreatedAt       time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at" json:"updated_at"`
	Deleted         bool           `bson:"deleted" json:"-"`
}

// EffectiveStage returns the last stage the user actually completed. For a
// rejected user this is the stage prior to the failed gate, which is what the
// trust score and the submission guards are computed against.
func (u *User) EffectiveStage() Stage {
	if u.Stage == StageRejected {
		return u.RejectedGate.PriorStage()
	}
	return u.Stage
}

// IsAgent reports whether the user may act on the review queue.
func (u *User) IsAgent() bool {
	return u.Role == RoleAgent || u.Role == RoleAdmin
}
