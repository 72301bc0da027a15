package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirrryasir/edoskill360-sub000/internal/db"
	"github.com/sirrryasir/edoskill360-sub000/internal/models"
	"github.com/sirrryasir/edoskill360-sub000/internal/trust"
	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// IVerificationService is the verification state machine. It is the only
// writer of the user's verification stage; every other component either
// submits requests to it or calls one of its event entry points.
type IVerificationService interface {
	CompleteProfile(ctx context.Context, userID utils.SixID) error
	SubmitIdentityProof(ctx context.Context, userID utils.SixID, proofRef string) (*models.VerificationRequest, error)
	SubmitReferenceRequest(ctx context.Context, userID utils.SixID, refName, refContact string) (*models.VerificationRequest, error)
	SubmitInterviewTranscript(ctx context.Context, userID utils.SixID, transcript []models.TranscriptEntry) (*models.VerificationRequest, error)
	OnAgentDecision(ctx context.Context, requestID utils.SixID, approved bool, reviewerID utils.SixID, notes string) error
	OnSkillsComplete(ctx context.Context, userID utils.SixID) error
	FindRequestByID(ctx context.Context, requestID utils.SixID) (*models.VerificationRequest, error)
	ListPendingRequests(ctx context.Context) ([]models.VerificationRequest, error)
}

const requestsCollection = "verification_requests"

type verificationService struct {
	db       *mongo.Database
	notifier Notifier
}

// NewVerificationService creates the state machine service.
func NewVerificationService(database *mongo.Database, notifier Notifier) IVerificationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &verificationService{db: database, notifier: notifier}
}

// CompleteProfile moves a user from the initial stage to profile_complete.
// Idempotent: a user already past that stage is left untouched.
func (s *verificationService) CompleteProfile(ctx context.Context, userID utils.SixID) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.EffectiveStage().AtLeast(models.StageProfileComplete) {
		return nil
	}
	return s.transitionStage(ctx, userID,
		bson.M{"verification_stage": models.StageUnverified},
		models.StageProfileComplete, "")
}

// SubmitIdentityProof records an identity document for review. It does not
// advance the stage; only agent approval does that. Valid from the first two
// stages or after an identity rejection.
func (s *verificationService) SubmitIdentityProof(ctx context.Context, userID utils.SixID, proofRef string) (*models.VerificationRequest, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	allowed := user.Stage == models.StageUnverified ||
		user.Stage == models.StageProfileComplete ||
		(user.Stage == models.StageRejected && user.RejectedGate == models.GateIdentity)
	if !allowed {
		return nil, &InvalidStageError{Action: "submit identity proof", Current: user.Stage, Required: models.StageProfileComplete}
	}

	req, err := s.createRequest(ctx, userID, models.RequestKindIdentity, models.RequestPayload{ProofRef: proofRef})
	if err != nil {
		return nil, err
	}

	// Remember the latest proof reference on the record itself.
	_, err = s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"identity_proof_ref": proofRef, "updated_at": time.Now().UTC()}})
	if err != nil {
		return nil, fmt.Errorf("failed to store proof ref for user %s: %w", userID.String(), err)
	}
	return req, nil
}

// SubmitReferenceRequest records reference contact details for checking.
// Requires the interview gate to be complete (or a prior reference rejection).
func (s *verificationService) SubmitReferenceRequest(ctx context.Context, userID utils.SixID, refName, refContact string) (*models.VerificationRequest, error) {
	if err := s.requireGateReady(ctx, userID, models.GateReferences, "submit reference request"); err != nil {
		return nil, err
	}
	return s.createRequest(ctx, userID, models.RequestKindReference, models.RequestPayload{
		ReferenceName:    refName,
		ReferenceContact: refContact,
	})
}

// SubmitInterviewTranscript records an interview Q&A transcript for review.
// Requires the skills gate to be complete (or a prior interview rejection).
func (s *verificationService) SubmitInterviewTranscript(ctx context.Context, userID utils.SixID, transcript []models.TranscriptEntry) (*models.VerificationRequest, error) {
	if err := s.requireGateReady(ctx, userID, models.GateInterview, "submit interview transcript"); err != nil {
		return nil, err
	}
	return s.createRequest(ctx, userID, models.RequestKindInterview, models.RequestPayload{Transcript: transcript})
}

// requireGateReady checks that the user stands exactly before the given gate,
// or was rejected at that gate and is retrying it.
func (s *verificationService) requireGateReady(ctx context.Context, userID utils.SixID, gate models.Gate, action string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	allowed := user.Stage == gate.PriorStage() ||
		(user.Stage == models.StageRejected && user.RejectedGate == gate)
	if !allowed {
		return &InvalidStageError{Action: action, Current: user.Stage, Required: gate.PriorStage()}
	}
	return nil
}

// createRequest inserts a pending request, enforcing the one-pending-per-kind
// invariant. The partial unique index on (user_id, kind, status=pending) is
// the backstop against concurrent duplicate submissions.
func (s *verificationService) createRequest(ctx context.Context, userID utils.SixID, kind models.RequestKind, payload models.RequestPayload) (*models.VerificationRequest, error) {
	collection := s.db.Collection(requestsCollection)

	count, err := collection.CountDocuments(ctx, bson.M{
		"user_id": userID, "kind": kind, "status": models.RequestStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("error checking pending %s requests: %w", kind, err)
	}
	if count > 0 {
		return nil, &DuplicatePendingRequestError{Kind: kind}
	}

	now := time.Now().UTC()
	var req *models.VerificationRequest
	operation := func() error {
		req = &models.VerificationRequest{
			Base:        models.NewBase(), // ID regenerated on each attempt
			UserID:      userID,
			Kind:        kind,
			Status:      models.RequestStatusPending,
			Payload:     payload,
			SubmittedAt: now,
		}
		_, insertErr := collection.InsertOne(ctx, req)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		// A duplicate on the pending index means another submission won the race.
		if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "user_id") {
			return nil, &DuplicatePendingRequestError{Kind: kind}
		}
		return nil, fmt.Errorf("failed to insert %s request for user %s: %w", kind, userID.String(), err)
	}
	return req, nil
}

// OnAgentDecision applies a human decision to a pending request. The stage
// update runs before the request is closed and is idempotent, so a crash
// between the two writes is repaired by replaying the decision. The second of
// two concurrent deciders observes ErrAlreadyResolved.
func (s *verificationService) OnAgentDecision(ctx context.Context, requestID utils.SixID, approved bool, reviewerID utils.SixID, notes string) error {
	req, err := s.FindRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != models.RequestStatusPending {
		return ErrAlreadyResolved
	}

	gate := req.Kind.Gate()
	if approved {
		if err := s.advanceForGate(ctx, req.UserID, gate); err != nil {
			return err
		}
	} else {
		if err := s.rejectAtGate(ctx, req.UserID, gate); err != nil {
			return err
		}
	}

	status := models.RequestStatusRejected
	if approved {
		status = models.RequestStatusApproved
	}
	now := time.Now().UTC()
	result, err := s.db.Collection(requestsCollection).UpdateOne(ctx,
		bson.M{"_id": requestID, "status": models.RequestStatusPending},
		bson.M{"$set": bson.M{
			"status":       status,
			"reviewer_id":  reviewerID,
			"review_notes": notes,
			"resolved_at":  now,
		}})
	if err != nil {
		return fmt.Errorf("failed to resolve request %s: %w", requestID.String(), err)
	}
	if result.MatchedCount == 0 {
		// Another decider closed it between our read and our write.
		return ErrAlreadyResolved
	}

	template := "verification." + string(req.Kind) + ".rejected"
	if approved {
		template = "verification." + string(req.Kind) + ".approved"
	}
	s.notifier.Notify(ctx, req.UserID, template, map[string]interface{}{"request_id": requestID.String()})

	// An identity approval may unlock the skills gate for a user whose
	// assessments all passed while identity review was still pending.
	if approved && gate == models.GateIdentity {
		if err := s.OnSkillsComplete(ctx, req.UserID); err != nil {
			log.Printf("post-identity skills check for user %s: %v", req.UserID.String(), err)
		}
	}
	return nil
}

// OnSkillsComplete is the event entry point for the assessment engine. It
// advances identity_verified users to skills_verified once every claimed
// skill is verified. Safe to call repeatedly.
func (s *verificationService) OnSkillsComplete(ctx context.Context, userID utils.SixID) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.EffectiveStage().AtLeast(models.StageSkillsVerified) {
		return nil
	}
	if user.Stage != models.StageIdentityVerified {
		// Skills verified ahead of the identity gate: recorded on the
		// proficiency records, picked up again after identity approval.
		return nil
	}

	done, err := s.allClaimedSkillsVerified(ctx, user)
	if err != nil {
		return err
	}
	if !done {
		return nil
	}
	return s.advanceForGate(ctx, userID, models.GateSkills)
}

// allClaimedSkillsVerified reports whether every claimed skill has a verified
// proficiency record. A user with no claimed skills is never skills-complete.
func (s *verificationService) allClaimedSkillsVerified(ctx context.Context, user *models.User) (bool, error) {
	if len(user.ClaimedSkillIDs) == 0 {
		return false, nil
	}
	count, err := s.db.Collection(proficienciesCollection).CountDocuments(ctx, bson.M{
		"user_id":  user.ID,
		"skill_id": bson.M{"$in": user.ClaimedSkillIDs},
		"verified": true,
	})
	if err != nil {
		return false, fmt.Errorf("error counting verified skills for user %s: %w", user.ID.String(), err)
	}
	return count == int64(len(user.ClaimedSkillIDs)), nil
}

// advanceForGate moves the user to the gate's target stage. The update is a
// compare-and-set on the from-stage, so concurrent writers cannot both move
// past the same gate; a user already at or beyond the target is a no-op.
func (s *verificationService) advanceForGate(ctx context.Context, userID utils.SixID, gate models.Gate) error {
	target := gate.TargetStage()

	fromStates := []bson.M{
		{"verification_stage": gate.PriorStage()},
		{"verification_stage": models.StageRejected, "rejected_gate": gate},
	}
	if gate == models.GateIdentity {
		// Identity proof may be submitted before the profile is marked
		// complete; approval then jumps the intermediate stage.
		fromStates = append(fromStates, bson.M{"verification_stage": models.StageUnverified})
	}

	err := s.transitionStage(ctx, userID, bson.M{"$or": fromStates}, target, "")
	if err == nil {
		s.notifier.Notify(ctx, userID, "stage.advanced", map[string]interface{}{"stage": string(target)})
		return nil
	}
	if errors.Is(err, errStageConflict) {
		// Replay or concurrent duplicate: fine if the user already got there.
		user, findErr := s.findUser(ctx, userID)
		if findErr != nil {
			return findErr
		}
		if user.EffectiveStage().AtLeast(target) {
			return nil
		}
		return ErrAlreadyResolved
	}
	return err
}

// rejectAtGate moves the user into the absorbing rejected state, recording
// which gate failed so a retry targets exactly that gate. Trust credit earned
// before the gate is retained.
func (s *verificationService) rejectAtGate(ctx context.Context, userID utils.SixID, gate models.Gate) error {
	fromStates := []bson.M{
		{"verification_stage": gate.PriorStage()},
		{"verification_stage": models.StageRejected, "rejected_gate": gate},
	}
	if gate == models.GateIdentity {
		fromStates = append(fromStates, bson.M{"verification_stage": models.StageUnverified})
	}
	err := s.transitionStage(ctx, userID, bson.M{"$or": fromStates}, models.StageRejected, gate)
	if errors.Is(err, errStageConflict) {
		user, findErr := s.findUser(ctx, userID)
		if findErr != nil {
			return findErr
		}
		if user.Stage == models.StageRejected && user.RejectedGate == gate {
			return nil
		}
		return ErrAlreadyResolved
	}
	return err
}

// errStageConflict marks a compare-and-set miss on the user record.
var errStageConflict = errors.New("stage transition conflict")

// transitionStage is the single place the verification stage is written. The
// trust breakdown is recomputed from the new stage in the same update, so the
// record never holds a stage/score combination that disagrees.
func (s *verificationService) transitionStage(ctx context.Context, userID utils.SixID, fromFilter bson.M, to models.Stage, rejectedGate models.Gate) error {
	effective := to
	if to == models.StageRejected {
		effective = rejectedGate.PriorStage()
	}
	breakdown := trust.Compute(effective)

	set := bson.M{
		"verification_stage": to,
		"trust_breakdown":    breakdown,
		"trust_score":        breakdown.Sum(),
		"updated_at":         time.Now().UTC(),
	}
	update := bson.M{"$set": set, "$inc": bson.M{"stage_version": 1}}
	if to == models.StageRejected {
		set["rejected_gate"] = rejectedGate
	} else {
		update["$unset"] = bson.M{"rejected_gate": ""}
	}

	filter := bson.M{"_id": userID, "deleted": false}
	for k, v := range fromFilter {
		filter[k] = v
	}

	result, err := s.db.Collection(usersCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to transition user %s to %s: %w", userID.String(), to, err)
	}
	if result.MatchedCount == 0 {
		return errStageConflict
	}
	return nil
}

// FindRequestByID retrieves a verification request.
func (s *verificationService) FindRequestByID(ctx context.Context, requestID utils.SixID) (*models.VerificationRequest, error) {
	var req models.VerificationRequest
	err := s.db.Collection(requestsCollection).FindOne(ctx, bson.M{"_id": requestID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("verification request", requestID.String())
		}
		return nil, fmt.Errorf("error finding request %s: %w", requestID.String(), err)
	}
	return &req, nil
}

// ListPendingRequests returns all pending requests, oldest first, to bound
// reviewer starvation.
func (s *verificationService) ListPendingRequests(ctx context.Context) ([]models.VerificationRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}})
	cursor, err := s.db.Collection(requestsCollection).Find(ctx,
		bson.M{"status": models.RequestStatusPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []models.VerificationRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode pending requests: %w", err)
	}
	return requests, nil
}

func (s *verificationService) findUser(ctx context.Context, userID utils.SixID) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": userID, "deleted": false}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("user", userID.String())
		}
		return nil, fmt.Errorf("error finding user %s: %w", userID.String(), err)
	}
	return &user, nil
}
