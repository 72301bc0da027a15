package models

import (
	"time"

	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// SessionStatus is the lifecycle state of an assessment session.
type SessionStatus string

const (
	// SessionStatusPending: started, not yet submitted (or, for proof-of-work,
	// submitted and waiting on an agent).
	SessionStatusPending SessionStatus = "pending"
	// SessionStatusGraded: quiz auto-graded, terminal.
	SessionStatusGraded SessionStatus = "graded"
	// SessionStatusApproved / SessionStatusRejected: terminal outcomes of
	// oracle grading or an agent decision.
	SessionStatusApproved SessionStatus = "approved"
	SessionStatusRejected SessionStatus = "rejected"
)

// IsTerminal reports whether the session can no longer change.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusGraded || s == SessionStatusApproved || s == SessionStatusRejected
}

// GeneratedQuestion is one open-response prompt minted by the oracle for an
// AI-generated session. The set is snapshotted on the session when it is
// created and never regenerated, so grading stays reproducible.
type GeneratedQuestion struct {
	Prompt     string `bson:"prompt" json:"prompt"`
	Difficulty string `bson:"difficulty" json:"difficulty"`
}

// AnswerEvaluation is the oracle's verdict on a single answer, persisted
// verbatim alongside the session.
type AnswerEvaluation struct {
	Score    int    `bson:"score" json:"score"` // 0..100
	Feedback string `bson:"feedback" json:"feedback"`
	Passed   bool   `bson:"passed" json:"passed"`
}

// SessionAnswer is one submitted answer. Quiz answers carry an option index,
// open-response and proof-of-work answers carry text (or a link/file URL).
type SessionAnswer struct {
	OptionIndex *int   `bson:"option_index,omitempty" json:"option_index,omitempty"`
	Text        string `bson:"text,omitempty" json:"text,omitempty"`
}

// AssessmentSession is one graded attempt at an assessment. A session is
// submitted exactly once: the submit path flips status away from pending with
// a compare-and-set, so of N concurrent submits exactly one wins.
type AssessmentSession struct {
	Base               `bson:",inline"`
	AssessmentID       utils.SixID         `bson:"assessment_id" json:"assessment_id"`
	UserID             utils.SixID         `bson:"user_id" json:"user_id"`
	SkillID            utils.SixID         `bson:"skill_id" json:"skill_id"`
	Mode               AssessmentMode      `bson:"mode" json:"mode"`
	GeneratedQuestions []GeneratedQuestion `bson:"generated_questions,omitempty" json:"generated_questions,omitempty"`
	Answers            []SessionAnswer     `bson:"answers,omitempty" json:"answers,omitempty"`
	Evaluations        []AnswerEvaluation  `bson:"evaluations,omitempty" json:"evaluations,omitempty"`
	Score              int                 `bson:"score" json:"score"`
	MaxScore           int                 `bson:"max_score" json:"max_score"`
	Passed             bool                `bson:"passed" json:"passed"`
	Status             SessionStatus       `bson:"status" json:"status"`
	ReviewerID         *utils.SixID        `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	ReviewNotes        string              `bson:"review_notes,omitempty" json:"review_notes,omitempty"`
	StartedAt          time.Time           `bson:"started_at" json:"started_at"`
	CompletedAt        *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}
