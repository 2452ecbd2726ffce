// Package workers implements the HTTP handlers for worker records, including
// the location- and role-filtered listings used by the oversight endpoints.
package workers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outreach-tracker/outreach-tracker/internal/api/httputil"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/db/repositories"
	"github.com/outreach-tracker/outreach-tracker/internal/middleware"
	"github.com/outreach-tracker/outreach-tracker/internal/service"
)

// Handlers handles worker endpoints
type Handlers struct {
	svc *service.WorkerService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc *service.WorkerService) *Handlers {
	return &Handlers{svc: svc}
}

// CreateRequest is the payload for creating a worker. LeaderID is optional;
// it defaults to the authenticated user.
type CreateRequest struct {
	FirstName   string              `json:"first_name" binding:"required"`
	LastName    string              `json:"last_name" binding:"required"`
	ContactInfo *models.ContactInfo `json:"contact_info"`
	Location    string              `json:"location" binding:"required"`
	Notes       *string             `json:"notes"`
	Role        string              `json:"role" binding:"required"`
	LeaderID    int64               `json:"leader_id"`
}

// UpdateRequest is the payload for updating a worker. Absent fields are left
// unchanged.
type UpdateRequest struct {
	FirstName   *string             `json:"first_name"`
	LastName    *string             `json:"last_name"`
	ContactInfo *models.ContactInfo `json:"contact_info"`
	Location    *string             `json:"location"`
	Notes       *string             `json:"notes"`
	Role        *string             `json:"role"`
}

// List returns the workers visible to the caller, with optional filters.
// GET /api/v1/workers?location=&role=&page=&per_page=
func (h *Handlers) List(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	pg := httputil.ParsePagination(c)

	filters := repositories.WorkerFilters{
		Location: httputil.QueryString(c, "location"),
		Role:     httputil.QueryString(c, "role"),
	}

	workers, total, err := h.svc.List(c.Request.Context(), actor, filters, pg.PerPage, pg.Offset)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workers":    workers,
		"pagination": pg.PaginationBody(total),
	})
}

// ListByLocation returns workers in the given location.
// GET /api/v1/workers/location/:location
func (h *Handlers) ListByLocation(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	pg := httputil.ParsePagination(c)

	location := c.Param("location")
	filters := repositories.WorkerFilters{Location: &location}

	workers, total, err := h.svc.List(c.Request.Context(), actor, filters, pg.PerPage, pg.Offset)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workers":    workers,
		"pagination": pg.PaginationBody(total),
	})
}

// ListByRole returns workers holding the given ministry role.
// GET /api/v1/workers/role/:role
func (h *Handlers) ListByRole(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	pg := httputil.ParsePagination(c)

	role := c.Param("role")
	filters := repositories.WorkerFilters{Role: &role}

	workers, total, err := h.svc.List(c.Request.Context(), actor, filters, pg.PerPage, pg.Offset)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workers":    workers,
		"pagination": pg.PaginationBody(total),
	})
}

// Get returns a single worker.
// GET /api/v1/workers/:id
func (h *Handlers) Get(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	id, ok := httputil.ParseID(c, "id")
	if !ok {
		return
	}

	w, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"worker": w})
}

// Create stores a new worker.
// POST /api/v1/workers
func (h *Handlers) Create(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	w := &models.Worker{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		ContactInfo: req.ContactInfo,
		Location:    req.Location,
		Notes:       req.Notes,
		Role:        req.Role,
		LeaderID:    req.LeaderID,
	}

	if err := h.svc.Create(c.Request.Context(), actor, w); err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"worker": w})
}

// Update applies field changes to a worker.
// PUT /api/v1/workers/:id
func (h *Handlers) Update(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	id, ok := httputil.ParseID(c, "id")
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	w, err := h.svc.Update(c.Request.Context(), actor, id, service.WorkerUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		ContactInfo: req.ContactInfo,
		Location:    req.Location,
		Notes:       req.Notes,
		Role:        req.Role,
	})
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"worker": w})
}

// Delete removes a worker.
// DELETE /api/v1/workers/:id
func (h *Handlers) Delete(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	id, ok := httputil.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
