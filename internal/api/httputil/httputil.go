// Package httputil holds helpers shared by the HTTP handler packages: mapping
// service errors onto status codes and parsing common query parameters.
package httputil

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/outreach-tracker/outreach-tracker/internal/service"
)

// RespondServiceError writes the HTTP response for an error returned by the
// service layer. Policy denials map to 403 with the machine-readable reason,
// state conflicts to 409, and storage failures to an opaque 500 (the detail
// goes to the log, not the client).
func RespondServiceError(c *gin.Context, err error) {
	var fe *service.ForbiddenError
	var pe *service.PreconditionError
	var se *service.StorageError

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.As(err, &fe):
		c.JSON(http.StatusForbidden, gin.H{
			"error":  "Forbidden",
			"reason": string(fe.Reason),
		})
	case errors.As(err, &pe):
		c.JSON(http.StatusConflict, gin.H{"error": pe.Message})
	case errors.As(err, &se):
		slog.Error("storage failure", "op", se.Op, "error", se.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	default:
		slog.Error("unexpected handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// Pagination carries the parsed page window.
type Pagination struct {
	Page    int
	PerPage int
	Offset  int
}

// ParsePagination reads page/per_page query parameters with the usual bounds:
// page >= 1, 1 <= per_page <= 100, default 20 per page.
func ParsePagination(c *gin.Context) Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return Pagination{Page: page, PerPage: perPage, Offset: (page - 1) * perPage}
}

// PaginationBody builds the standard pagination envelope for list responses.
func (p Pagination) PaginationBody(total int) gin.H {
	return gin.H{
		"page":     p.Page,
		"per_page": p.PerPage,
		"total":    total,
	}
}

// ParseID parses a numeric path parameter, responding 400 on failure. The
// boolean reports whether the caller should continue.
func ParseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// QueryBool reads an optional boolean query parameter, returning nil when absent.
func QueryBool(c *gin.Context, name string) *bool {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// QueryString reads an optional string query parameter, returning nil when absent.
func QueryString(c *gin.Context, name string) *string {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	return &raw
}

// QueryTime reads an optional RFC3339 or date-only query parameter.
func QueryTime(c *gin.Context, name string) *time.Time {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}
