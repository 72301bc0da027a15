package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sirrryasir/edoskill360-sub000/internal/api/middleware"
	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// currentUserID extracts the authenticated caller's ID from the Gin context.
// On failure it writes the response and returns false.
func currentUserID(c *gin.Context) (utils.SixID, bool) {
	raw, exists := c.Get(middleware.ContextKeyUserID)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return utils.SixID{}, false
	}
	userID, err := utils.ParseSixID(raw.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
		return utils.SixID{}, false
	}
	return userID, true
}

// pathSixID parses a SixID path parameter, writing a 400 on failure.
func pathSixID(c *gin.Context, name string) (utils.SixID, bool) {
	id, err := utils.ParseSixID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return utils.SixID{}, false
	}
	return id, true
}
