// Package trust derives the numeric trust score from a user's verification
// progress. The derivation is a pure function of the stage ordering table:
// a category is awarded in full once the stage implying its completion has
// been reached, zero otherwise. There is no partial credit and no state, so
// recomputation after every transition is safe and idempotent.
package trust

import (
	"github.com/sirrryasir/edoskill360-sub000/internal/models"
)

// Category weights. They sum to 100.
const (
	IdentityPoints   = 20
	SkillsPoints     = 40
	InterviewPoints  = 20
	ReferencesPoints = 20
)

// Compute returns the trust breakdown for a verification stage. For
// models.StageRejected the caller passes the user's effective stage (the
// stage prior to the failed gate), so rejected users keep the credit for
// gates they already passed.
func Compute(stage models.Stage) models.TrustBreakdown {
	var b models.TrustBreakdown
	if stage.AtLeast(models.StageIdentityVerified) {
		b.Identity = IdentityPoints
	}
	if stage.AtLeast(models.StageSkillsVerified) {
		b.Skills = SkillsPoints
	}
	if stage.AtLeast(models.StageInterviewComplete) {
		b.Interview = InterviewPoints
	}
	if stage.AtLeast(models.StageFullyVerified) {
		b.References = ReferencesPoints
	}
	return b
}

// ComputeForUser resolves the effective stage of a user record and returns
// breakdown plus total.
func ComputeForUser(u *models.User) (models.TrustBreakdown, int) {
	b := Compute(u.EffectiveStage())
	return b, b.Sum()
}
