package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/cpns-tryout/exam-service/internal/config"
	"github.com/cpns-tryout/exam-service/internal/models"
	"github.com/cpns-tryout/exam-service/internal/repositories"
	"github.com/cpns-tryout/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthRequired and read by handlers.
const (
	ContextUserID   = "user_id"
	ContextUserName = "user_name"
	ContextIsAdmin  = "is_admin"
)

// InitCasdoor configures the Casdoor SDK once at startup. Token verification
// afterwards is local (certificate based), no network round trip per request.
func InitCasdoor(cfg config.CasdoorConfig) {
	casdoorsdk.InitConfig(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
}

// AuthRequired verifies the bearer token and mirrors the asserted identity
// into the local users table. Session issuance lives entirely in Casdoor.
func AuthRequired(users repositories.UserRepository, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			logger.Warn("Token verification failed", "error", err, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		now := time.Now()
		user := &models.User{
			ID:          claims.User.Id,
			FullName:    claims.User.DisplayName,
			Email:       claims.User.Email,
			IsAdmin:     claims.User.IsAdmin,
			IsActive:    true,
			LastLoginAt: &now,
		}
		if err := users.Upsert(c.Request.Context(), user); err != nil {
			logger.Warn("User mirror upsert failed", "user_id", user.ID, "error", err)
		}

		c.Set(ContextUserID, claims.User.Id)
		c.Set(ContextUserName, claims.User.DisplayName)
		c.Set(ContextIsAdmin, claims.User.IsAdmin)
		c.Next()
	}
}

// AdminRequired gates the question-catalog mutation routes. Must run after
// AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, exists := c.Get(ContextIsAdmin)
		if !exists || !isAdmin.(bool) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Admin access required",
			})
			return
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
