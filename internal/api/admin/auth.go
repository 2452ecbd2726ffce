// Package admin implements the authenticated management endpoints: login and
// session introspection, account administration, audit trail queries, and the
// dashboard statistics aggregate.
package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outreach-tracker/outreach-tracker/internal/auth"
	"github.com/outreach-tracker/outreach-tracker/internal/config"
	"github.com/outreach-tracker/outreach-tracker/internal/db/repositories"
	"github.com/outreach-tracker/outreach-tracker/internal/middleware"
	"github.com/outreach-tracker/outreach-tracker/internal/telemetry"
)

// AuthHandlers handles login and session endpoints
type AuthHandlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(cfg *config.Config, db *sql.DB) *AuthHandlers {
	return &AuthHandlers{
		cfg:      cfg,
		userRepo: repositories.NewUserRepository(db),
	}
}

// LoginRequest is the credential payload for /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler authenticates a username/password pair and issues a JWT.
// Unknown usernames and wrong passwords produce the same response so the
// endpoint does not leak which usernames exist.
// POST /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}

		user, err := h.userRepo.GetByUsername(c.Request.Context(), req.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			return
		}

		if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
			telemetry.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}

		if !user.Active {
			telemetry.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
			return
		}

		token, err := auth.GenerateJWT(user.ID, h.cfg.Auth.TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			return
		}

		telemetry.LoginAttemptsTotal.WithLabelValues("success").Inc()
		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_in": int(h.cfg.Auth.TokenTTL.Seconds()),
			"user":       user,
		})
	}
}

// MeHandler returns the authenticated user's own account.
// GET /api/v1/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}
