package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sirrryasir/edoskill360-sub000/internal/models"
	"github.com/sirrryasir/edoskill360-sub000/internal/services"
	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// MockUserService implements services.IUserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) SetClaimedSkills(ctx context.Context, userID utils.SixID, skillIDs []utils.SixID) error {
	args := m.Called(ctx, userID, skillIDs)
	return args.Error(0)
}

// MockVerificationService implements services.IVerificationService.
type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) CompleteProfile(ctx context.Context, userID utils.SixID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockVerificationService) SubmitIdentityProof(ctx context.Context, userID utils.SixID, proofRef string) (*models.VerificationRequest, error) {
	args := m.Called(ctx, userID, proofRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

func (m *MockVerificationService) SubmitReferenceRequest(ctx context.Context, userID utils.SixID, refName, refContact string) (*models.VerificationRequest, error) {
	args := m.Called(ctx, userID, refName, refContact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

func (m *MockVerificationService) SubmitInterviewTranscript(ctx context.Context, userID utils.SixID, transcript []models.TranscriptEntry) (*models.VerificationRequest, error) {
	args := m.Called(ctx, userID, transcript)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

func (m *MockVerificationService) OnAgentDecision(ctx context.Context, requestID utils.SixID, approved bool, reviewerID utils.SixID, notes string) error {
	args := m.Called(ctx, requestID, approved, reviewerID, notes)
	return args.Error(0)
}

func (m *MockVerificationService) OnSkillsComplete(ctx context.Context, userID utils.SixID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockVerificationService) FindRequestByID(ctx context.Context, requestID utils.SixID) (*models.VerificationRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

func (m *MockVerificationService) ListPendingRequests(ctx context.Context) ([]models.VerificationRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VerificationRequest), args.Error(1)
}

var _ services.IUserService = (*MockUserService)(nil)
var _ services.IVerificationService = (*MockVerificationService)(nil)
