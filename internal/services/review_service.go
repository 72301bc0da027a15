package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sirrryasir/edoskill360-sub000/internal/models"
	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// ReviewItemKind distinguishes the two sources feeding the agent queue.
type ReviewItemKind string

const (
	ReviewItemRequest ReviewItemKind = "verification_request"
	ReviewItemSession ReviewItemKind = "proof_of_work_session"
)

// ReviewItem is one entry in the agent queue, normalised across
// verification requests and proof-of-work sessions.
type ReviewItem struct {
	ID          utils.SixID               `json:"id"`
	Kind        ReviewItemKind            `json:"kind"`
	UserID      utils.SixID               `json:"user_id"`
	UserName    string                    `json:"user_name,omitempty"`
	UserEmail   string                    `json:"user_email,omitempty"`
	RequestKind models.RequestKind        `json:"request_kind,omitempty"`
	Payload     *models.RequestPayload    `json:"payload,omitempty"`
	Session     *models.AssessmentSession `json:"session,omitempty"`
	SubmittedAt time.Time                 `json:"submitted_at"`
}

// Decision is an agent's verdict on a queue item.
type Decision struct {
	Approved      bool
	Notes         string
	ScoreOverride *int // proof-of-work only
}

// IReviewService is the agent-facing review queue.
type IReviewService interface {
	ListPending(ctx context.Context, reviewer *models.User) ([]ReviewItem, error)
	Decide(ctx context.Context, reviewer *models.User, itemID utils.SixID, decision Decision) error
}

type reviewService struct {
	db              *mongo.Database
	verificationSvc IVerificationService
	assessmentSvc   IAssessmentService
	userSvc         IUserService
}

// NewReviewService creates the queue over the verification and assessment
// services.
func NewReviewService(database *mongo.Database, verificationSvc IVerificationService, assessmentSvc IAssessmentService, userSvc IUserService) IReviewService {
	return &reviewService{
		db:              database,
		verificationSvc: verificationSvc,
		assessmentSvc:   assessmentSvc,
		userSvc:         userSvc,
	}
}

// ListPending merges pending verification requests with submitted
// proof-of-work sessions, oldest first across both sources.
func (s *reviewService) ListPending(ctx context.Context, reviewer *models.User) ([]ReviewItem, error) {
	if !reviewer.IsAgent() {
		return nil, ErrAgentRole
	}

	requests, err := s.verificationSvc.ListPendingRequests(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.assessmentSvc.ListPendingProofSessions(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]ReviewItem, 0, len(requests)+len(sessions))
	for i := range requests {
		req := &requests[i]
		payload := req.Payload
		items = append(items, ReviewItem{
			ID:          req.ID,
			Kind:        ReviewItemRequest,
			UserID:      req.UserID,
			RequestKind: req.Kind,
			Payload:     &payload,
			SubmittedAt: req.SubmittedAt,
		})
	}
	for i := range sessions {
		sess := &sessions[i]
		submittedAt := sess.StartedAt
		if sess.CompletedAt != nil {
			submittedAt = *sess.CompletedAt
		}
		items = append(items, ReviewItem{
			ID:          sess.ID,
			Kind:        ReviewItemSession,
			UserID:      sess.UserID,
			Session:     sess,
			SubmittedAt: submittedAt,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})

	s.attachUserSummaries(ctx, items)
	return items, nil
}

// attachUserSummaries decorates queue items with the submitter's name and
// email. Lookup failures leave the item bare rather than failing the list.
func (s *reviewService) attachUserSummaries(ctx context.Context, items []ReviewItem) {
	cache := make(map[utils.SixID]*models.User, len(items))
	for i := range items {
		user, ok := cache[items[i].UserID]
		if !ok {
			var err error
			user, err = s.userSvc.FindByID(ctx, items[i].UserID)
			if err != nil {
				user = nil
			}
			cache[items[i].UserID] = user
		}
		if user != nil {
			items[i].UserName = user.Name
			items[i].UserEmail = user.Email
		}
	}
}

// Decide routes a verdict to the owning service. The item is looked up as a
// verification request first, then as a proof-of-work session.
func (s *reviewService) Decide(ctx context.Context, reviewer *models.User, itemID utils.SixID, decision Decision) error {
	if !reviewer.IsAgent() {
		return ErrAgentRole
	}

	_, err := s.verificationSvc.FindRequestByID(ctx, itemID)
	if err == nil {
		return s.verificationSvc.OnAgentDecision(ctx, itemID, decision.Approved, reviewer.ID, decision.Notes)
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		return err
	}

	session, err := s.assessmentSvc.FindSession(ctx, itemID)
	if err != nil {
		if errors.As(err, &notFound) {
			return NewNotFoundError("review item", itemID.String())
		}
		return err
	}
	if session.Mode != models.ModeProofOfWork {
		return NewNotFoundError("review item", itemID.String())
	}
	return s.assessmentSvc.ResolveProofOfWork(ctx, itemID, decision.Approved, decision.ScoreOverride, reviewer.ID, decision.Notes)
}
