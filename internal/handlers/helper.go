package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cpns-tryout/exam-service/internal/services"
	"github.com/gin-gonic/gin"
)

// ParseUintParam parses a numeric path parameter, responding 400 and
// returning 0 when it is malformed.
func ParseUintParam(c *gin.Context, param string) uint {
	idStr := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return 0
	}
	return uint(id)
}

// CurrentUserID returns the authenticated user's ID from the gin context,
// responding 401 when the auth middleware did not run.
func CurrentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return userID.(string), true
}

// handleServiceError maps service-layer errors onto HTTP statuses. Services
// own the taxonomy; this is the only place statuses are assigned.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case services.IsConflict(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: err.Error(),
		})
	case services.IsUnauthorized(err):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Unauthorized",
		})
	case services.IsForbidden(err):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Admin access required",
		})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
