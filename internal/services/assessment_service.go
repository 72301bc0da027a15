package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirrryasir/edoskill360-sub000/internal/db"
	"github.com/sirrryasir/edoskill360-sub000/internal/models"
	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// IAssessmentService runs skill assessments end to end: publishing,
// session lifecycle, grading and proficiency bookkeeping.
type IAssessmentService interface {
	PublishAssessment(ctx context.Context, a *models.Assessment) error
	FindAssessment(ctx context.Context, id utils.SixID) (*models.Assessment, error)
	ListAssessments(ctx context.Context, skillID *utils.SixID) ([]models.Assessment, error)
	StartSession(ctx context.Context, userID, assessmentID utils.SixID) (*models.AssessmentSession, error)
	SubmitSession(ctx context.Context, userID, sessionID utils.SixID, answers []models.SessionAnswer) (*models.AssessmentSession, error)
	FindSession(ctx context.Context, sessionID utils.SixID) (*models.AssessmentSession, error)
	ListPendingProofSessions(ctx context.Context) ([]models.AssessmentSession, error)
	ResolveProofOfWork(ctx context.Context, sessionID utils.SixID, approved bool, scoreOverride *int, reviewerID utils.SixID, notes string) error
}

const (
	assessmentsCollection   = "assessments"
	sessionsCollection      = "assessment_sessions"
	proficienciesCollection = "skill_proficiencies"
)

type assessmentService struct {
	db              *mongo.Database
	oracle          QuestionOracle
	verificationSvc IVerificationService
	skillSvc        ISkillService
	notifier        Notifier
	questionCount   int
}

// NewAssessmentService wires the assessment engine to its collaborators. The
// oracle may be nil when AI-generated assessments are not configured; starting
// one then fails with OracleUnavailableError.
func NewAssessmentService(database *mongo.Database, oracle QuestionOracle, verificationSvc IVerificationService, skillSvc ISkillService, notifier Notifier, questionCount int) IAssessmentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if questionCount <= 0 {
		questionCount = 3
	}
	return &assessmentService{
		db:              database,
		oracle:          oracle,
		verificationSvc: verificationSvc,
		skillSvc:        skillSvc,
		notifier:        notifier,
		questionCount:   questionCount,
	}
}

// PublishAssessment validates and stores an assessment definition.
func (s *assessmentService) PublishAssessment(ctx context.Context, a *models.Assessment) error {
	if _, err := s.skillSvc.FindByID(ctx, a.SkillID); err != nil {
		return err
	}
	switch a.Mode {
	case models.ModeStaticQuiz:
		if len(a.Questions) == 0 {
			return errors.New("a static quiz needs at least one question")
		}
		for i, q := range a.Questions {
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				return fmt.Errorf("question %d has correct index %d outside its %d options", i, q.CorrectIndex, len(q.Options))
			}
		}
	case models.ModeAIGenerated:
		if a.QuestionCount <= 0 {
			a.QuestionCount = s.questionCount
		}
	case models.ModeProofOfWork:
		if a.SubmissionType == "" {
			return errors.New("a proof-of-work assessment needs a submission type")
		}
	default:
		return fmt.Errorf("unknown assessment mode %q", a.Mode)
	}
	if a.MaxScore <= 0 {
		a.MaxScore = 100
	}
	a.CreatedAt = time.Now().UTC()

	operation := func() error {
		a.GenID()
		_, err := s.db.Collection(assessmentsCollection).InsertOne(ctx, a)
		return err
	}
	if err := db.Try(operation); err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

func (s *assessmentService) FindAssessment(ctx context.Context, id utils.SixID) (*models.Assessment, error) {
	var a models.Assessment
	err := s.db.Collection(assessmentsCollection).FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("assessment", id.String())
		}
		return nil, fmt.Errorf("error finding assessment %s: %w", id.String(), err)
	}
	return &a, nil
}

func (s *assessmentService) ListAssessments(ctx context.Context, skillID *utils.SixID) ([]models.Assessment, error) {
	filter := bson.M{"deleted": false}
	if skillID != nil {
		filter["skill_id"] = *skillID
	}
	cursor, err := s.db.Collection(assessmentsCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer cursor.Close(ctx)

	var assessments []models.Assessment
	if err = cursor.All(ctx, &assessments); err != nil {
		return nil, fmt.Errorf("failed to decode assessments: %w", err)
	}
	return assessments, nil
}

// StartSession opens a new attempt. For AI-generated assessments the oracle
// is consulted exactly once; the generated questions are snapshotted into the
// session so grading later never depends on the oracle regenerating them.
func (s *assessmentService) StartSession(ctx context.Context, userID, assessmentID utils.SixID) (*models.AssessmentSession, error) {
	assessment, err := s.FindAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	skill, err := s.skillSvc.FindByID(ctx, assessment.SkillID)
	if err != nil {
		return nil, err
	}

	session := &models.AssessmentSession{
		AssessmentID: assessmentID,
		UserID:       userID,
		SkillID:      assessment.SkillID,
		Mode:         assessment.Mode,
		MaxScore:     assessment.MaxScore,
		Status:       models.SessionStatusPending,
		StartedAt:    time.Now().UTC(),
	}

	if assessment.Mode == models.ModeAIGenerated {
		if s.oracle == nil {
			return nil, &OracleUnavailableError{Op: "generate questions", Err: errors.New("no oracle configured")}
		}
		questions, genErr := s.oracle.GenerateQuestions(ctx, skill.Name, assessment.Difficulty, assessment.QuestionCount)
		if genErr != nil {
			return nil, genErr
		}
		session.GeneratedQuestions = questions
	}

	operation := func() error {
		session.GenID()
		_, insertErr := s.db.Collection(sessionsCollection).InsertOne(ctx, session)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return session, nil
}

// SubmitSession grades an attempt. The status flip from pending is a
// compare-and-set, so a session is consumed exactly once; the loser of a
// double submit gets ErrAlreadySubmitted.
func (s *assessmentService) SubmitSession(ctx context.Context, userID, sessionID utils.SixID, answers []models.SessionAnswer) (*models.AssessmentSession, error) {
	session, err := s.FindSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrOwnership
	}
	if session.Status.IsTerminal() {
		// A terminal session may have committed before its proficiency and
		// stage updates did; replay them before rejecting the duplicate.
		if err := s.replayOutcome(ctx, session); err != nil {
			return nil, err
		}
		return nil, ErrAlreadySubmitted
	}
	if session.CompletedAt != nil {
		// Proof-of-work sessions stay pending after submission while they
		// wait for review, so pending alone does not mean unsubmitted.
		return nil, ErrAlreadySubmitted
	}
	assessment, err := s.FindAssessment(ctx, session.AssessmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	set := bson.M{
		"answers":      answers,
		"completed_at": now,
	}
	session.Answers = answers
	session.CompletedAt = &now

	switch session.Mode {
	case models.ModeStaticQuiz:
		score := QuizScore(assessment.Questions, answers, assessment.MaxScore)
		passed := Passed(score, assessment.MaxScore)
		session.Score, session.Passed, session.Status = score, passed, models.SessionStatusGraded
		set["score"], set["passed"], set["status"] = score, passed, models.SessionStatusGraded

	case models.ModeAIGenerated:
		if s.oracle == nil {
			return nil, &OracleUnavailableError{Op: "evaluate answers", Err: errors.New("no oracle configured")}
		}
		evaluations := make([]models.AnswerEvaluation, 0, len(session.GeneratedQuestions))
		for i, q := range session.GeneratedQuestions {
			answer := ""
			if i < len(answers) {
				answer = answers[i].Text
			}
			eval, evalErr := s.oracle.EvaluateAnswer(ctx, q, answer)
			if evalErr != nil {
				// Nothing is persisted; the session stays pending and the
				// same answers can be submitted again.
				return nil, evalErr
			}
			evaluations = append(evaluations, eval)
		}
		score := AverageScore(evaluations)
		passed := Passed(score, 100)
		status := models.SessionStatusRejected
		if passed {
			status = models.SessionStatusApproved
		}
		session.Evaluations, session.Score, session.MaxScore = evaluations, score, 100
		session.Passed, session.Status = passed, status
		set["evaluations"], set["score"], set["max_score"] = evaluations, score, 100
		set["passed"], set["status"] = passed, status

	case models.ModeProofOfWork:
		// Stored as-is; a human reviewer resolves it from the queue.
		set["status"] = models.SessionStatusPending

	default:
		return nil, fmt.Errorf("unknown session mode %q", session.Mode)
	}

	result, err := s.db.Collection(sessionsCollection).UpdateOne(ctx,
		bson.M{"_id": sessionID, "status": models.SessionStatusPending, "completed_at": nil},
		bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to submit session %s: %w", sessionID.String(), err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrAlreadySubmitted
	}

	if session.Status.IsTerminal() {
		if err := s.applyOutcome(ctx, session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// ResolveProofOfWork applies a reviewer's verdict to a submitted
// proof-of-work session. The proficiency and stage updates run before the
// session is closed and are idempotent, so a crash between the two writes
// leaves the session pending and the decision replayable. The second of two
// concurrent deciders observes ErrAlreadyResolved.
func (s *assessmentService) ResolveProofOfWork(ctx context.Context, sessionID utils.SixID, approved bool, scoreOverride *int, reviewerID utils.SixID, notes string) error {
	session, err := s.FindSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Mode != models.ModeProofOfWork {
		return fmt.Errorf("session %s is not a proof-of-work session", sessionID.String())
	}
	if session.Status.IsTerminal() {
		return ErrAlreadyResolved
	}
	if session.CompletedAt == nil {
		return fmt.Errorf("session %s has no submission to review", sessionID.String())
	}

	score := 0
	status := models.SessionStatusRejected
	if approved {
		score = session.MaxScore
		status = models.SessionStatusApproved
	}
	if scoreOverride != nil {
		score = *scoreOverride
	}
	passed := approved
	session.Score, session.Passed, session.Status = score, passed, status

	if passed {
		if err := s.applyPassEffects(ctx, session); err != nil {
			return err
		}
	}

	result, err := s.db.Collection(sessionsCollection).UpdateOne(ctx,
		bson.M{"_id": sessionID, "status": models.SessionStatusPending},
		bson.M{"$set": bson.M{
			"status":       status,
			"score":        score,
			"passed":       passed,
			"reviewer_id":  reviewerID,
			"review_notes": notes,
		}})
	if err != nil {
		return fmt.Errorf("failed to resolve session %s: %w", sessionID.String(), err)
	}
	if result.MatchedCount == 0 {
		// Another decider closed it between our read and our write.
		return ErrAlreadyResolved
	}

	s.notifyOutcome(ctx, session)
	return nil
}

// applyOutcome records the result of a freshly graded session on the user's
// proficiency and, on a pass, pokes the verification state machine.
func (s *assessmentService) applyOutcome(ctx context.Context, session *models.AssessmentSession) error {
	if session.Passed {
		if err := s.applyPassEffects(ctx, session); err != nil {
			return err
		}
	}
	s.notifyOutcome(ctx, session)
	return nil
}

// applyPassEffects is the idempotent half of a passing outcome: the $max
// proficiency upsert and the skills-complete check. Safe to replay.
func (s *assessmentService) applyPassEffects(ctx context.Context, session *models.AssessmentSession) error {
	if err := s.upsertProficiency(ctx, session.UserID, session.SkillID, session.Score); err != nil {
		return err
	}
	return s.verificationSvc.OnSkillsComplete(ctx, session.UserID)
}

// replayOutcome repairs a terminal session whose status committed before its
// proficiency or stage update did. No-op for failed sessions.
func (s *assessmentService) replayOutcome(ctx context.Context, session *models.AssessmentSession) error {
	if !session.Passed {
		return nil
	}
	return s.applyPassEffects(ctx, session)
}

func (s *assessmentService) notifyOutcome(ctx context.Context, session *models.AssessmentSession) {
	event := "assessment.failed"
	if session.Passed {
		event = "assessment.passed"
	}
	s.notifier.Notify(ctx, session.UserID, event, map[string]interface{}{
		"session_id": session.ID.String(),
		"score":      session.Score,
	})
}

// upsertProficiency records a verified score for the skill. $max keeps the
// proficiency monotonic: a later, worse attempt never lowers it.
func (s *assessmentService) upsertProficiency(ctx context.Context, userID, skillID utils.SixID, score int) error {
	now := time.Now().UTC()
	operation := func() error {
		_, err := s.db.Collection(proficienciesCollection).UpdateOne(ctx,
			bson.M{"user_id": userID, "skill_id": skillID},
			bson.M{
				"$max":         bson.M{"score": score},
				"$set":         bson.M{"verified": true, "updated_at": now},
				"$setOnInsert": bson.M{"_id": utils.NewSixID()},
			},
			options.Update().SetUpsert(true))
		return err
	}
	if err := db.Try(operation); err != nil {
		return fmt.Errorf("failed to upsert proficiency for user %s skill %s: %w", userID.String(), skillID.String(), err)
	}
	return nil
}

func (s *assessmentService) FindSession(ctx context.Context, sessionID utils.SixID) (*models.AssessmentSession, error) {
	var session models.AssessmentSession
	err := s.db.Collection(sessionsCollection).FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("session", sessionID.String())
		}
		return nil, fmt.Errorf("error finding session %s: %w", sessionID.String(), err)
	}
	return &session, nil
}

// ListPendingProofSessions returns submitted proof-of-work sessions awaiting
// review, oldest first.
func (s *assessmentService) ListPendingProofSessions(ctx context.Context) ([]models.AssessmentSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}})
	cursor, err := s.db.Collection(sessionsCollection).Find(ctx, bson.M{
		"mode":         models.ModeProofOfWork,
		"status":       models.SessionStatusPending,
		"completed_at": bson.M{"$ne": nil},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending proof sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []models.AssessmentSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode pending proof sessions: %w", err)
	}
	return sessions, nil
}
