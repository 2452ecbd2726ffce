// rbac.go implements role-based route gating.
//
// Roles are read from the context user loaded by AuthMiddleware rather than
// from the JWT, so a role change takes effect on the user's next request
// without token rotation. Route-level gating covers whole endpoint groups
// (e.g. admin APIs); record-level decisions stay in the policy engine.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// RequireRole allows the request through only when the authenticated user
// holds one of the given roles.
func RequireRole(roles ...policy.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "User not authenticated",
			})
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
	}
}
