package models

// Stage is one step in a user's verification journey. Stages are strictly
// ordered; each is a prerequisite for the next. StageRejected is a parallel
// absorbing state entered when an agent rejects a gate; the User record keeps
// the failed gate so a retry targets exactly that gate.
type Stage string

const (
	StageUnverified        Stage = "unverified"
	StageProfileComplete   Stage = "profile_complete"
	StageIdentityVerified  Stage = "identity_verified"
	StageSkillsVerified    Stage = "skills_verified"
	StageInterviewComplete Stage = "interview_complete"
	// StageFullyVerified is the terminal stage, reached once references check out.
	StageFullyVerified Stage = "fully_verified"
	StageRejected      Stage = "rejected"
)

// stageOrder is the single canonical ordering table. Everything that needs to
// compare progress consults this; there are no other enum-to-index maps.
var stageOrder = map[Stage]int{
	StageUnverified:        0,
	StageProfileComplete:   1,
	StageIdentityVerified:  2,
	StageSkillsVerified:    3,
	StageInterviewComplete: 4,
	StageFullyVerified:     5,
}

// Ordinal returns the position of a stage in the verification order.
// StageRejected and unknown values return -1.
func (s Stage) Ordinal() int {
	if ord, ok := stageOrder[s]; ok {
		return ord
	}
	return -1
}

// AtLeast reports whether s has reached other in the verification order.
func (s Stage) AtLeast(other Stage) bool {
	return s.Ordinal() >= other.Ordinal() && s.Ordinal() >= 0
}

// IsTerminal reports whether no further forward transition exists from s.
func (s Stage) IsTerminal() bool {
	return s == StageFullyVerified
}

// Gate identifies the requirement that must be satisfied to advance a stage.
type Gate string

const (
	GateIdentity   Gate = "identity"
	GateSkills     Gate = "skills"
	GateInterview  Gate = "interview"
	GateReferences Gate = "references"
)

// gateTarget maps a gate to the stage reached when the gate is passed.
var gateTarget = map[Gate]Stage{
	GateIdentity:   StageIdentityVerified,
	GateSkills:     StageSkillsVerified,
	GateInterview:  StageInterviewComplete,
	GateReferences: StageFullyVerified,
}

// TargetStage returns the stage a user advances to when this gate is passed.
func (g Gate) TargetStage() Stage {
	return gateTarget[g]
}

// PriorStage returns the last stage completed before this gate, i.e. the
// progress a user retains while the gate itself is unresolved or rejected.
func (g Gate) PriorStage() Stage {
	switch g {
	case GateIdentity:
		return StageProfileComplete
	case GateSkills:
		return StageIdentityVerified
	case GateInterview:
		return StageSkillsVerified
	case GateReferences:
		return StageInterviewComplete
	}
	return StageUnverified
}
