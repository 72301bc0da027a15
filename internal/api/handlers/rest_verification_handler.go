package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sirrryasir/edoskill360-sub000/internal/models"
	"github.com/sirrryasir/edoskill360-sub000/internal/services"
	"github.com/sirrryasir/edoskill360-sub000/internal/storage"
)

// RestVerificationHandler exposes the verification state machine over REST.
type RestVerificationHandler struct {
	verificationService services.IVerificationService
	userService         services.IUserService
	proofStorage        storage.IProofStorage
}

// NewRestVerificationHandler creates a RestVerificationHandler. proofStorage
// may be nil when S3 is not configured; the upload-url endpoint then returns
// 503.
func NewRestVerificationHandler(verificationService services.IVerificationService, userService services.IUserService, proofStorage storage.IProofStorage) *RestVerificationHandler {
	return &RestVerificationHandler{
		verificationService: verificationService,
		userService:         userService,
		proofStorage:        proofStorage,
	}
}

// verificationStatus is the caller-facing view of their progress.
type verificationStatus struct {
	Stage          models.Stage          `json:"stage"`
	RejectedGate   models.Gate           `json:"rejected_gate,omitempty"`
	TrustScore     int                   `json:"trust_score"`
	TrustBreakdown models.TrustBreakdown `json:"trust_breakdown"`
}

// GetStatus handles GET /v1/verification.
func (h *RestVerificationHandler) GetStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.FindByID(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, verificationStatus{
		Stage:          user.Stage,
		RejectedGate:   user.RejectedGate,
		TrustScore:     user.TrustScore,
		TrustBreakdown: user.TrustBreakdown,
	})
}

// CompleteProfile handles POST /v1/verification/profile/complete.
func (h *RestVerificationHandler) CompleteProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.verificationService.CompleteProfile(c.Request.Context(), userID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type proofUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// CreateProofUploadURL handles POST /v1/verification/identity/upload-url.
// The returned key is what the client then submits as proof_ref.
func (h *RestVerificationHandler) CreateProofUploadURL(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if h.proofStorage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Document uploads are not configured"})
		return
	}

	var req proofUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, key, err := h.proofStorage.GeneratePresignedProofURL(c.Request.Context(), userID.String(), req.Filename, req.ContentType)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_url": url, "proof_ref": key})
}

type identitySubmission struct {
	ProofRef string `json:"proof_ref" binding:"required"`
}

// SubmitIdentity handles POST /v1/verification/identity.
func (h *RestVerificationHandler) SubmitIdentity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req identitySubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.verificationService.SubmitIdentityProof(c.Request.Context(), userID, req.ProofRef)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

type interviewSubmission struct {
	Transcript []models.TranscriptEntry `json:"transcript" binding:"required,min=1,dive"`
}

// SubmitInterview handles POST /v1/verification/interview.
func (h *RestVerificationHandler) SubmitInterview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req interviewSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.verificationService.SubmitInterviewTranscript(c.Request.Context(), userID, req.Transcript)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

type referenceSubmission struct {
	Name    string `json:"name" binding:"required"`
	Contact string `json:"contact" binding:"required"`
}

// SubmitReference handles POST /v1/verification/reference.
func (h *RestVerificationHandler) SubmitReference(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req referenceSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.verificationService.SubmitReferenceRequest(c.Request.Context(), userID, req.Name, req.Contact)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}
