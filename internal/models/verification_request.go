package models

import (
	"time"

	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// RequestKind identifies which gate a human-reviewable submission belongs to.
type RequestKind string

const (
	RequestKindIdentity  RequestKind = "identity"
	RequestKindReference RequestKind = "reference"
	RequestKindInterview RequestKind = "interview"
)

// Gate returns the verification gate this kind of request resolves.
func (k RequestKind) Gate() Gate {
	switch k {
	case RequestKindIdentity:
		return GateIdentity
	case RequestKindReference:
		return GateReferences
	case RequestKindInterview:
		return GateInterview
	}
	return ""
}

// RequestStatus is the lifecycle state of a verification request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// TranscriptEntry is one question/answer pair of an interview transcript.
type TranscriptEntry struct {
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
}

// RequestPayload carries whatever the user submitted for review. Exactly one
// section is populated, depending on the request kind.
type RequestPayload struct {
	ProofRef         string            `bson:"proof_ref,omitempty" json:"proof_ref,omitempty"`
	ReferenceName    string            `bson:"reference_name,omitempty" json:"reference_name,omitempty"`
	ReferenceContact string            `bson:"reference_contact,omitempty" json:"reference_contact,omitempty"`
	Transcript       []TranscriptEntry `bson:"transcript,omitempty" json:"transcript,omitempty"`
}

// VerificationRequest is one human-reviewable submission. At most one pending
// request may exist per (user, kind); that invariant is enforced by a partial
// unique index plus a guard query. A resolved request is never reopened.
type VerificationRequest struct {
	Base        `bson:",inline"`
	UserID      utils.SixID    `bson:"user_id" json:"user_id"`
	Kind        RequestKind    `bson:"kind" json:"kind"`
	Status      RequestStatus  `bson:"status" json:"status"`
	Payload     RequestPayload `bson:"payload" json:"payload"`
	ReviewerID  *utils.SixID   `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	ReviewNotes string         `bson:"review_notes,omitempty" json:"review_notes,omitempty"`
	SubmittedAt time.Time      `bson:"submitted_at" json:"submitted_at"`
	ResolvedAt  *time.Time     `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}
