// Package disciples implements the HTTP handlers for disciple records.
package disciples

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outreach-tracker/outreach-tracker/internal/api/httputil"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/db/repositories"
	"github.com/outreach-tracker/outreach-tracker/internal/middleware"
	"github.com/outreach-tracker/outreach-tracker/internal/service"
)

// Handlers handles disciple endpoints
type Handlers struct {
	svc *service.DiscipleService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc *service.DiscipleService) *Handlers {
	return &Handlers{svc: svc}
}

// CreateRequest is the payload for creating a disciple directly (most
// disciples come into existence through the conversion endpoint instead).
type CreateRequest struct {
	FirstName   string              `json:"first_name" binding:"required"`
	LastName    string              `json:"last_name" binding:"required"`
	ContactInfo *models.ContactInfo `json:"contact_info"`
	Location    string              `json:"location" binding:"required"`
	Notes       *string             `json:"notes"`
	IsWorker    bool                `json:"is_worker"`
	LeaderID    int64               `json:"leader_id"`
}

// UpdateRequest is the payload for updating a disciple. Absent fields are
// left unchanged.
type UpdateRequest struct {
	FirstName   *string             `json:"first_name"`
	LastName    *string             `json:"last_name"`
	ContactInfo *models.ContactInfo `json:"contact_info"`
	Location    *string             `json:"location"`
	Notes       *string             `json:"notes"`
	IsWorker    *bool               `json:"is_worker"`
}

// List returns the disciples visible to the caller, with optional filters.
// GET /api/v1/disciples?is_worker=&location=&start_date=&end_date=&page=&per_page=
func (h *Handlers) List(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	pg := httputil.ParsePagination(c)

	filters := repositories.DiscipleFilters{
		IsWorker:  httputil.QueryBool(c, "is_worker"),
		Location:  httputil.QueryString(c, "location"),
		StartDate: httputil.QueryTime(c, "start_date"),
		EndDate:   httputil.QueryTime(c, "end_date"),
	}

	disciples, total, err := h.svc.List(c.Request.Context(), actor, filters, pg.PerPage, pg.Offset)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"disciples":  disciples,
		"pagination": pg.PaginationBody(total),
	})
}

// Get returns a single disciple.
// GET /api/v1/disciples/:id
func (h *Handlers) Get(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	id, ok := httputil.ParseID(c, "id")
	if !ok {
		return
	}

	d, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disciple": d})
}

// Create stores a new disciple.
// POST /api/v1/disciples
func (h *Handlers) Create(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	d := &models.Disciple{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		ContactInfo: req.ContactInfo,
		Location:    req.Location,
		Notes:       req.Notes,
		IsWorker:    req.IsWorker,
		LeaderID:    req.LeaderID,
	}

	if err := h.svc.Create(c.Request.Context(), actor, d); err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"disciple": d})
}

// Update applies field changes to a disciple.
// PUT /api/v1/disciples/:id
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

	d, err := h.svc.Update(c.Request.Context(), actor, id, service.DiscipleUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		ContactInfo: req.ContactInfo,
		Location:    req.Location,
		Notes:       req.Notes,
		IsWorker:    req.IsWorker,
	})
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disciple": d})
}

// Delete removes a disciple.
// DELETE /api/v1/disciples/:id
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
