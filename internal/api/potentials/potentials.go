// Package potentials implements the HTTP handlers for potential records:
// CRUD, filtered listing, and the conversion endpoint that turns a potential
// into a disciple.
package potentials

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outreach-tracker/outreach-tracker/internal/api/httputil"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/db/repositories"
	"github.com/outreach-tracker/outreach-tracker/internal/middleware"
	"github.com/outreach-tracker/outreach-tracker/internal/service"
)

// Handlers handles potential endpoints
type Handlers struct {
	svc *service.PotentialService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc *service.PotentialService) *Handlers {
	return &Handlers{svc: svc}
}

// CreateRequest is the payload for creating a potential. LeaderID is optional;
// it defaults to the authenticated user.
type CreateRequest struct {
	FirstName   string              `json:"first_name" binding:"required"`
	LastName    string              `json:"last_name" binding:"required"`
	ContactInfo *models.ContactInfo `json:"contact_info"`
	Location    string              `json:"location" binding:"required"`
	Notes       *string             `json:"notes"`
	LeaderID    int64               `json:"leader_id"`
}

// UpdateRequest is the payload for updating a potential. Absent fields are
// left unchanged.
type UpdateRequest struct {
	FirstName   *string             `json:"first_name"`
	LastName    *string             `json:"last_name"`
	ContactInfo *models.ContactInfo `json:"contact_info"`
	Location    *string             `json:"location"`
	Notes       *string             `json:"notes"`
}

// List returns the potentials visible to the caller, with optional filters.
// GET /api/v1/potentials?is_disciple=&location=&start_date=&end_date=&page=&per_page=
func (h *Handlers) List(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	pg := httputil.ParsePagination(c)

	filters := repositories.PotentialFilters{
		IsDisciple: httputil.QueryBool(c, "is_disciple"),
		Location:   httputil.QueryString(c, "location"),
		StartDate:  httputil.QueryTime(c, "start_date"),
		EndDate:    httputil.QueryTime(c, "end_date"),
	}

	potentials, total, err := h.svc.List(c.Request.Context(), actor, filters, pg.PerPage, pg.Offset)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"potentials": potentials,
		"pagination": pg.PaginationBody(total),
	})
}

// Get returns a single potential.
// GET /api/v1/potentials/:id
func (h *Handlers) Get(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	id, ok := httputil.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"potential": p})
}

// Create stores a new potential.
// POST /api/v1/potentials
func (h *Handlers) Create(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	p := &models.Potential{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		ContactInfo: req.ContactInfo,
		Location:    req.Location,
		Notes:       req.Notes,
		LeaderID:    req.LeaderID,
	}

	if err := h.svc.Create(c.Request.Context(), actor, p); err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"potential": p})
}

// Update applies field changes to a potential.
// PUT /api/v1/potentials/:id
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

	p, err := h.svc.Update(c.Request.Context(), actor, id, service.PotentialUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		ContactInfo: req.ContactInfo,
		Location:    req.Location,
		Notes:       req.Notes,
	})
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"potential": p})
}

// Delete removes a potential.
// DELETE /api/v1/potentials/:id
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

// Convert turns a potential into a disciple owned by the caller.
// POST /api/v1/potentials/:id/convert
func (h *Handlers) Convert(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	id, ok := httputil.ParseID(c, "id")
	if !ok {
		return
	}

	d, err := h.svc.Convert(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"disciple": d})
}
