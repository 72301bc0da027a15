package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sirrryasir/edoskill360-sub000/internal/models"
	"github.com/sirrryasir/edoskill360-sub000/internal/services"
	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// RestAssessmentHandler exposes the skill catalog and assessment engine.
type RestAssessmentHandler struct {
	assessmentService services.IAssessmentService
	skillService      services.ISkillService
	userService       services.IUserService
}

// NewRestAssessmentHandler creates a RestAssessmentHandler.
func NewRestAssessmentHandler(assessmentService services.IAssessmentService, skillService services.ISkillService, userService services.IUserService) *RestAssessmentHandler {
	return &RestAssessmentHandler{
		assessmentService: assessmentService,
		skillService:      skillService,
		userService:       userService,
	}
}

// ListSkills handles GET /v1/skills.
func (h *RestAssessmentHandler) ListSkills(c *gin.Context) {
	skills, err := h.skillService.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, skills)
}

type claimSkillsRequest struct {
	SkillIDs []string `json:"skill_ids" binding:"required,min=1"`
}

// ClaimSkills handles PUT /v1/me/skills.
func (h *RestAssessmentHandler) ClaimSkills(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req claimSkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	skillIDs := make([]utils.SixID, 0, len(req.SkillIDs))
	for _, raw := range req.SkillIDs {
		id, err := utils.ParseSixID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid skill ID: " + raw})
			return
		}
		if _, err := h.skillService.FindByID(c.Request.Context(), id); err != nil {
			writeServiceError(c, err)
			return
		}
		skillIDs = append(skillIDs, id)
	}

	if err := h.userService.SetClaimedSkills(c.Request.Context(), userID, skillIDs); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListAssessments handles GET /v1/assessments with an optional skill_id query.
func (h *RestAssessmentHandler) ListAssessments(c *gin.Context) {
	var skillID *utils.SixID
	if raw := c.Query("skill_id"); raw != "" {
		id, err := utils.ParseSixID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid skill_id format"})
			return
		}
		skillID = &id
	}

	assessments, err := h.assessmentService.ListAssessments(c.Request.Context(), skillID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	// Correct answers never leave the server.
	for i := range assessments {
		assessments[i].Questions = assessments[i].PublicQuestions()
	}
	c.JSON(http.StatusOK, assessments)
}

// PublishAssessment handles POST /v1/admin/assessments.
func (h *RestAssessmentHandler) PublishAssessment(c *gin.Context) {
	var assessment models.Assessment
	if err := c.ShouldBindJSON(&assessment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.assessmentService.PublishAssessment(c.Request.Context(), &assessment); err != nil {
		var notFound *services.NotFoundError
		if errors.As(err, &notFound) {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": assessment.ID.String()})
}

// sessionView is the caller-facing form of a session: quiz answer keys are
// stripped from the embedded questions.
type sessionView struct {
	*models.AssessmentSession
	Questions []models.QuizQuestion `json:"questions,omitempty"`
}

// StartSession handles POST /v1/assessments/:id/sessions.
func (h *RestAssessmentHandler) StartSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := pathSixID(c, "id")
	if !ok {
		return
	}

	session, err := h.assessmentService.StartSession(c.Request.Context(), userID, assessmentID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	view := sessionView{AssessmentSession: session}
	if session.Mode == models.ModeStaticQuiz {
		assessment, err := h.assessmentService.FindAssessment(c.Request.Context(), assessmentID)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		view.Questions = assessment.PublicQuestions()
	}
	c.JSON(http.StatusCreated, view)
}

type submitSessionRequest struct {
	Answers []models.SessionAnswer `json:"answers" binding:"required"`
}

// SubmitSession handles POST /v1/sessions/:id/submit.
func (h *RestAssessmentHandler) SubmitSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	var req submitSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.assessmentService.SubmitSession(c.Request.Context(), userID, sessionID, req.Answers)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetSession handles GET /v1/sessions/:id.
func (h *RestAssessmentHandler) GetSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathSixID(c, "id")
	if !ok {
		return
	}

	session, err := h.assessmentService.FindSession(c.Request.Context(), sessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if session.UserID != userID {
		writeServiceError(c, services.ErrOwnership)
		return
	}
	c.JSON(http.StatusOK, session)
}
