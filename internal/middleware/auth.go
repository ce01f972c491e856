// internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/utils"
)

const (
	ContextUserID   = "user_id"
	ContextUserName = "user_name"
	ContextIsAdmin  = "is_admin"
)

// UserLookup resolves the account behind a token; it must fail for missing or inactive users
type UserLookup interface {
	CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

func AuthRequired(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.KeyAuthRequired)
			return
		}

		user, ok := authenticate(c, users, authHeader)
		if !ok {
			utils.UnauthorizedResponse(c, i18n.KeyAuthInvalidToken)
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// AdminRequired must run after AuthRequired
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			utils.ForbiddenResponse(c, i18n.KeyAdminAccessDenied)
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and never rejects the request
func OptionalAuth(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		if user, ok := authenticate(c, users, authHeader); ok {
			setUser(c, user)
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, users UserLookup, authHeader string) (*models.User, bool) {
	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	claims, err := utils.ValidateJWT(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, false
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, false
	}

	user, err := users.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		return nil, false
	}
	return user, true
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(ContextUserID, user.ID)
	c.Set(ContextUserName, user.Name)
	c.Set(ContextIsAdmin, user.IsAdmin)
}

// GetUserID returns the authenticated caller, if any
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextIsAdmin)
}
