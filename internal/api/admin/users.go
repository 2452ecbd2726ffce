package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outreach-tracker/outreach-tracker/internal/api/httputil"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/middleware"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
	"github.com/outreach-tracker/outreach-tracker/internal/service"
)

// UserHandlers handles account administration endpoints
type UserHandlers struct {
	svc *service.UserService
}

// NewUserHandlers creates a new UserHandlers instance
func NewUserHandlers(svc *service.UserService) *UserHandlers {
	return &UserHandlers{svc: svc}
}

// CreateUserRequest is the payload for creating an account.
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Role     string  `json:"role" binding:"required"`
	Location *string `json:"location"`
}

// UpdateUserRequest is the payload for updating an account. Absent fields are
// left unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Role     *string `json:"role"`
	Location *string `json:"location"`
	Password *string `json:"password"`
}

// List returns all accounts, paginated.
// GET /api/v1/admin/users
func (h *UserHandlers) List(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	pg := httputil.ParsePagination(c)

	users, total, err := h.svc.List(c.Request.Context(), actor, pg.PerPage, pg.Offset)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": pg.PaginationBody(total),
	})
}

// Get returns a single account.
// GET /api/v1/admin/users/:id
func (h *UserHandlers) Get(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	id, ok := httputil.ParseID(c, "id")
	if !ok {
		return
	}

	u, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Create stores a new account.
// POST /api/v1/admin/users
func (h *UserHandlers) Create(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	u := &models.User{
		Username: req.Username,
		Role:     policy.Role(req.Role),
		Location: req.Location,
	}

	if err := h.svc.Create(c.Request.Context(), actor, u, req.Password); err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// Update applies field changes to an account.
// PUT /api/v1/admin/users/:id
func (h *UserHandlers) Update(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	id, ok := httputil.ParseID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	upd := service.UserUpdate{
		Username: req.Username,
		Location: req.Location,
		Password: req.Password,
	}
	if req.Role != nil {
		role := policy.Role(*req.Role)
		upd.Role = &role
	}

	u, err := h.svc.Update(c.Request.Context(), actor, id, upd)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Deactivate disables an account. The row is kept so audit entries retain a
// valid actor reference.
// DELETE /api/v1/admin/users/:id
func (h *UserHandlers) Deactivate(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	id, ok := httputil.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Deactivate(c.Request.Context(), actor, id); err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deactivated": true})
}
