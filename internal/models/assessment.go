package models

import (
	"time"

	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// AssessmentMode determines how a submission for the assessment is graded.
type AssessmentMode string

const (
	// ModeStaticQuiz is a fixed multiple-choice question bank, auto-graded.
	ModeStaticQuiz AssessmentMode = "static_quiz"
	// ModeAIGenerated mints open-response questions per session via the
	// question oracle, which also grades the answers.
	ModeAIGenerated AssessmentMode = "ai_generated"
	// ModeProofOfWork is free-form evidence (file/text/link) graded by an agent.
	ModeProofOfWork AssessmentMode = "proof_of_work"
)

// SubmissionType applies to proof-of-work assessments only.
type SubmissionType string

const (
	SubmissionTypeFile SubmissionType = "file"
	SubmissionTypeText SubmissionType = "text"
	SubmissionTypeLink SubmissionType = "link"
)

// PassThreshold is the fraction of MaxScore required to pass any assessment.
const PassThreshold = 0.60

// QuizQuestion is one multiple-choice question of a static quiz. CorrectIndex
// never leaves the server; it is excluded from JSON entirely.
type QuizQuestion struct {
	Prompt       string   `bson:"prompt" json:"prompt"`
	Options      []string `bson:"options" json:"options"`
	CorrectIndex int      `bson:"correct_index" json:"-"`
}

// Assessment is a published, skill-linked task definition. Definitions are
// immutable once published; Questions is populated for static quizzes only.
type Assessment struct {
	Base           `bson:",inline"`
	SkillID        utils.SixID    `bson:"skill_id" json:"skill_id"`
	Title          string         `bson:"title" json:"title"`
	Mode           AssessmentMode `bson:"mode" json:"mode"`
	Difficulty     string         `bson:"difficulty" json:"difficulty"`
	Questions      []QuizQuestion `bson:"questions,omitempty" json:"questions,omitempty"`
	QuestionCount  int            `bson:"question_count" json:"question_count"`
	SubmissionType SubmissionType `bson:"submission_type,omitempty" json:"submission_type,omitempty"`
	MaxScore       int            `bson:"max_score" json:"max_score"`
	TimeLimit      time.Duration  `bson:"time_limit" json:"time_limit"` // advisory, no server-side timer
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
	Deleted        bool           `bson:"deleted" json:"-"`
}

// PublicQuestions returns the quiz question set with correct answers zeroed,
// safe to persist on a session or hand to a candidate.
func (a *Assessment) PublicQuestions() []QuizQuestion {
	out := make([]QuizQuestion, len(a.Questions))
	for i, q := range a.Questions {
		out[i] = QuizQuestion{Prompt: q.Prompt, Options: q.Options}
	}
	return out
}
