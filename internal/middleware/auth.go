// Package middleware provides Gin HTTP middleware for authentication,
// authorization, rate limiting, security headers, and request telemetry.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Recovery → RequestID → Metrics → Security → RateLimit → Auth → RBAC → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth populates the user identity; RBAC reads the role from that context.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/outreach-tracker/outreach-tracker/internal/auth"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/db/repositories"
)

const (
	// UserKey is the gin.Context key under which the authenticated user is stored.
	UserKey = "user"

	// UserIDKey is the gin.Context key under which the authenticated user ID is stored.
	UserIDKey = "user_id"
)

// AuthMiddleware validates the bearer JWT and loads the account it names.
// Only the user ID lives in the token; role and location come from the
// database on every request, so role changes and deactivations take effect
// immediately rather than at token expiry.
func AuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		user, err := userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Account is deactivated",
			})
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)

		c.Next()
	}
}

// CurrentUser returns the authenticated user placed in the context by
// AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok
}
