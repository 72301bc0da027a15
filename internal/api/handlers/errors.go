package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sirrryasir/edoskill360-sub000/internal/services"
)

// writeServiceError maps service-layer errors onto HTTP responses. Conflict
// family errors (stage guards, double submits, duplicate requests) all map to
// 409 so clients can distinguish a retryable race from a bad request.
func writeServiceError(c *gin.Context, err error) {
	var notFound *services.NotFoundError
	var invalidStage *services.InvalidStageError
	var duplicate *services.DuplicatePendingRequestError
	var oracle *services.OracleUnavailableError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &invalidStage):
		c.JSON(http.StatusConflict, gin.H{"error": invalidStage.Error()})
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, gin.H{"error": duplicate.Error()})
	case errors.Is(err, services.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"error": "This session has already been submitted"})
	case errors.Is(err, services.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "This item has already been resolved"})
	case errors.Is(err, services.ErrOwnership):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this resource"})
	case errors.Is(err, services.ErrAgentRole):
		c.JSON(http.StatusForbidden, gin.H{"error": "Agent privileges required"})
	case errors.As(err, &oracle):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Question service temporarily unavailable, try again"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
