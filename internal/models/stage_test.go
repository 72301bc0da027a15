package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageOrdering(t *testing.T) {
	ordered := []Stage{
		StageUnverified,
		StageProfileComplete,
		StageIdentityVerified,
		StageSkillsVerified,
		StageInterviewComplete,
		StageFullyVerified,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Ordinal(), ordered[i-1].Ordinal(),
			"%s must come after %s", ordered[i], ordered[i-1])
	}
	assert.Equal(t, -1, StageRejected.Ordinal())
	assert.Equal(t, -1, Stage("bogus").Ordinal())
}

func TestStageAtLeast(t *testing.T) {
	assert.True(t, StageSkillsVerified.AtLeast(StageIdentityVerified))
	assert.True(t, StageSkillsVerified.AtLeast(StageSkillsVerified))
	assert.False(t, StageIdentityVerified.AtLeast(StageSkillsVerified))
	// Rejected has no ordinal and never satisfies AtLeast.
	assert.False(t, StageRejected.AtLeast(StageUnverified))
}

func TestGateTransitions(t *testing.T) {
	assert.Equal(t, StageIdentityVerified, GateIdentity.TargetStage())
	assert.Equal(t, StageSkillsVerified, GateSkills.TargetStage())
	assert.Equal(t, StageInterviewComplete, GateInterview.TargetStage())
	assert.Equal(t, StageFullyVerified, GateReferences.TargetStage())

	// Each gate's prior stage is exactly one step below its target.
	for _, g := range []Gate{GateIdentity, GateSkills, GateInterview, GateReferences} {
		assert.Equal(t, g.TargetStage().Ordinal()-1, g.PriorStage().Ordinal(), "gate %s", g)
	}
}

func TestRequestKindGates(t *testing.T) {
	assert.Equal(t, GateIdentity, RequestKindIdentity.Gate())
	assert.Equal(t, GateReferences, RequestKindReference.Gate())
	assert.Equal(t, GateInterview, RequestKindInterview.Gate())
}

func TestUserEffectiveStage(t *testing.T) {
	u := &User{Stage: StageSkillsVerified}
	assert.Equal(t, StageSkillsVerified, u.EffectiveStage())

	u = &User{Stage: StageRejected, RejectedGate: GateReferences}
	assert.Equal(t, StageInterviewComplete, u.EffectiveStage())
}
