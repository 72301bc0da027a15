package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sirrryasir/edoskill360-sub000/internal/models"
)

func TestCompute_PerStage(t *testing.T) {
	cases := []struct {
		stage models.Stage
		want  models.TrustBreakdown
	}{
		{models.StageUnverified, models.TrustBreakdown{}},
		{models.StageProfileComplete, models.TrustBreakdown{}},
		{models.StageIdentityVerified, models.TrustBreakdown{Identity: 20}},
		{models.StageSkillsVerified, models.TrustBreakdown{Identity: 20, Skills: 40}},
		{models.StageInterviewComplete, models.TrustBreakdown{Identity: 20, Skills: 40, Interview: 20}},
		{models.StageFullyVerified, models.TrustBreakdown{Identity: 20, Skills: 40, Interview: 20, References: 20}},
	}
	for _, c := range cases {
		got := Compute(c.stage)
		assert.Equal(t, c.want, got, "stage %s", c.stage)
	}
}

func TestCompute_TotalIsAlwaysSumOfBreakdown(t *testing.T) {
	for stage := range map[models.Stage]struct{}{
		models.StageUnverified:        {},
		models.StageProfileComplete:   {},
		models.StageIdentityVerified:  {},
		models.StageSkillsVerified:    {},
		models.StageInterviewComplete: {},
		models.StageFullyVerified:     {},
	} {
		b := Compute(stage)
		assert.Equal(t, b.Identity+b.Skills+b.Interview+b.References, b.Sum())
	}
}

func TestCompute_Idempotent(t *testing.T) {
	first := Compute(models.StageSkillsVerified)
	second := Compute(models.StageSkillsVerified)
	assert.Equal(t, first, second)
}

func TestComputeForUser_RejectedKeepsPriorCredit(t *testing.T) {
	// Rejected at the interview gate: identity and skills remain awarded.
	u := &models.User{Stage: models.StageRejected, RejectedGate: models.GateInterview}
	b, total := ComputeForUser(u)
	assert.Equal(t, models.TrustBreakdown{Identity: 20, Skills: 40}, b)
	assert.Equal(t, 60, total)

	// Rejected at identity: nothing awarded yet.
	u = &models.User{Stage: models.StageRejected, RejectedGate: models.GateIdentity}
	b, total = ComputeForUser(u)
	assert.Equal(t, models.TrustBreakdown{}, b)
	assert.Equal(t, 0, total)
}

func TestComputeForUser_FullyVerifiedTotals100(t *testing.T) {
	u := &models.User{Stage: models.StageFullyVerified}
	_, total := ComputeForUser(u)
	assert.Equal(t, 100, total)
}
