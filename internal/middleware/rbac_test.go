package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// newRBACRouter builds a Gin engine that injects a user with the given role
// before RequireRole runs.
func newRBACRouter(userRole policy.Role, required ...policy.Role) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(UserKey, &models.User{ID: 1, Username: "u", Role: userRole, Active: true})
		c.Next()
	})
	r.Use(RequireRole(required...))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serveRBAC(r *gin.Engine) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireRole_MatchingRoleAllowed(t *testing.T) {
	r := newRBACRouter(policy.RoleAdmin, policy.RoleAdmin)
	if code := serveRBAC(r); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
}

func TestRequireRole_AnyOfSeveralRoles(t *testing.T) {
	r := newRBACRouter(policy.RolePastor, policy.RoleAdmin, policy.RolePastor)
	if code := serveRBAC(r); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
}

func TestRequireRole_WrongRoleForbidden(t *testing.T) {
	r := newRBACRouter(policy.RoleLeader, policy.RoleAdmin)
	if code := serveRBAC(r); code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
}

func TestRequireRole_NoUserForbidden(t *testing.T) {
	r := gin.New()
	r.Use(RequireRole(policy.RoleAdmin))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	if code := serveRBAC(r); code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
}
