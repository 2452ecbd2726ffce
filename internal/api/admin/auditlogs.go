package admin

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/outreach-tracker/outreach-tracker/internal/api/httputil"
	"github.com/outreach-tracker/outreach-tracker/internal/db/repositories"
)

// AuditLogHandlers handles audit trail query endpoints. The trail is
// append-only: these endpoints read it, nothing writes to it except the
// service-layer mutations themselves.
type AuditLogHandlers struct {
	repo *repositories.AuditRepository
}

// NewAuditLogHandlers creates a new AuditLogHandlers instance
func NewAuditLogHandlers(db *sql.DB) *AuditLogHandlers {
	return &AuditLogHandlers{repo: repositories.NewAuditRepository(db)}
}

// List returns audit entries matching the given filters, newest first.
// GET /api/v1/admin/audit-logs?user_id=&action=&table_name=&record_id=&start_date=&end_date=
func (h *AuditLogHandlers) List(c *gin.Context) {
	pg := httputil.ParsePagination(c)

	filters := repositories.AuditFilters{
		Action:    httputil.QueryString(c, "action"),
		TableName: httputil.QueryString(c, "table_name"),
		StartDate: httputil.QueryTime(c, "start_date"),
		EndDate:   httputil.QueryTime(c, "end_date"),
	}
	if raw, ok := c.GetQuery("user_id"); ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.UserID = &id
		}
	}
	if raw, ok := c.GetQuery("record_id"); ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.RecordID = &id
		}
	}

	logs, total, err := h.repo.List(c.Request.Context(), filters, pg.PerPage, pg.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query audit trail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": logs,
		"pagination": pg.PaginationBody(total),
	})
}

// Get returns a single audit entry.
// GET /api/v1/admin/audit-logs/:id
func (h *AuditLogHandlers) Get(c *gin.Context) {
	id, ok := httputil.ParseID(c, "id")
	if !ok {
		return
	}

	entry, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query audit trail"})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Audit entry not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit_log": entry})
}
