package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sirrryasir/edoskill360-sub000/internal/services"
)

// RestReviewHandler exposes the agent review queue. Routes are behind the
// agent middleware, and the review service re-checks the role from the
// database.
type RestReviewHandler struct {
	reviewService services.IReviewService
	userService   services.IUserService
}

// NewRestReviewHandler creates a RestReviewHandler.
func NewRestReviewHandler(reviewService services.IReviewService, userService services.IUserService) *RestReviewHandler {
	return &RestReviewHandler{reviewService: reviewService, userService: userService}
}

// GetQueue handles GET /v1/review/queue.
func (h *RestReviewHandler) GetQueue(c *gin.Context) {
	reviewerID, ok := currentUserID(c)
	if !ok {
		return
	}
	reviewer, err := h.userService.FindByID(c.Request.Context(), reviewerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	items, err := h.reviewService.ListPending(c.Request.Context(), reviewer)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

type decisionRequest struct {
	Approve       bool   `json:"approve"`
	Notes         string `json:"notes"`
	ScoreOverride *int   `json:"score_override,omitempty"`
}

// PostDecision handles POST /v1/review/:id/decision.
func (h *RestReviewHandler) PostDecision(c *gin.Context) {
	reviewerID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reviewer, err := h.userService.FindByID(c.Request.Context(), reviewerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	err = h.reviewService.Decide(c.Request.Context(), reviewer, itemID, services.Decision{
		Approved:      req.Approve,
		Notes:         req.Notes,
		ScoreOverride: req.ScoreOverride,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
