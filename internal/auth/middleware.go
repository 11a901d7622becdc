package auth

import (
	"net/http"
	"strings"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"github.com/Pranay8282/Expense-Management/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const contextUserKey = "current_user"

// Middleware authenticates requests and loads the acting user.
type Middleware struct {
	tokens *TokenManager
	users  *repository.UserRepository
	logger *zap.Logger
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(tokens *TokenManager, users *repository.UserRepository, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// Authenticate verifies the Bearer token and stores the user on the context.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := m.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := m.users.GetByID(claims.UserID)
		if err != nil {
			m.logger.Error("Failed to load authenticated user", zap.Int64("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// RequireRoles aborts with 403 unless the current user holds one of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// CurrentUser returns the authenticated user stored on the context, or nil.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}
