// stats.go implements the handler aggregating dashboard statistics: record
// counts, conversion totals, location breakdowns, and recent audit activity.
package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// StatsHandler handles stats-related API requests
type StatsHandler struct {
	db *sqlx.DB
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(database *sqlx.DB) *StatsHandler {
	return &StatsHandler{
		db: database,
	}
}

// DashboardStats represents the response for dashboard statistics
type DashboardStats struct {
	Potentials    PotentialStats     `json:"potentials"`
	Disciples     DiscipleStats      `json:"disciples"`
	Workers       WorkerStats        `json:"workers"`
	Users         UserStats          `json:"users"`
	ByLocation    []LocationCount    `json:"by_location"`
	RecentChanges []RecentAuditEntry `json:"recent_changes"`
}

// PotentialStats represents potential-specific statistics
type PotentialStats struct {
	Total            int64 `json:"total"`
	Converted        int64 `json:"converted"`
	Unconverted      int64 `json:"unconverted"`
	AddedLast30d     int64 `json:"added_last_30d"`
	ConvertedLast30d int64 `json:"converted_last_30d"`
}

// DiscipleStats represents disciple-specific statistics
type DiscipleStats struct {
	Total        int64 `json:"total"`
	Workers      int64 `json:"workers"`
	AddedLast30d int64 `json:"added_last_30d"`
}

// WorkerStats represents worker-specific statistics
type WorkerStats struct {
	Total        int64       `json:"total"`
	AddedLast30d int64       `json:"added_last_30d"`
	ByRole       []RoleCount `json:"by_role"`
}

// UserStats represents account statistics broken down by role
type UserStats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Admins  int64 `json:"admins"`
	Pastors int64 `json:"pastors"`
	Leaders int64 `json:"leaders"`
	Workers int64 `json:"workers"`
}

// LocationCount is the record count for a single location across all three
// tracked tables.
type LocationCount struct {
	Location   string `db:"location" json:"location"`
	Potentials int64  `db:"potentials" json:"potentials"`
	Disciples  int64  `db:"disciples" json:"disciples"`
	Workers    int64  `db:"workers" json:"workers"`
}

// RoleCount is a count of workers holding a single ministry role.
type RoleCount struct {
	Role  string `db:"role" json:"role"`
	Count int64  `db:"count" json:"count"`
}

// RecentAuditEntry is a recent mutation from the audit trail with the actor's
// username joined in.
type RecentAuditEntry struct {
	Action    string    `db:"action" json:"action"`
	TableName string    `db:"table_name" json:"table_name"`
	RecordID  int64     `db:"record_id" json:"record_id"`
	Username  string    `db:"username" json:"username"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// GetDashboardStats returns dashboard statistics using a single database
// round-trip for the core counts, with breakdown queries layered on top.
// GET /api/v1/admin/stats/dashboard
func (h *StatsHandler) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()

	// Core counts — single round-trip.
	query := `
		SELECT
			(SELECT COUNT(*) FROM potentials) AS potential_count,
			(SELECT COUNT(*) FROM potentials WHERE is_disciple = true) AS converted_count,
			(SELECT COUNT(*) FROM potentials WHERE date_added >= NOW() - INTERVAL '30 days') AS potentials_30d,
			(SELECT COUNT(*) FROM disciples) AS disciple_count,
			(SELECT COUNT(*) FROM disciples WHERE is_worker = true) AS disciple_worker_count,
			(SELECT COUNT(*) FROM disciples WHERE date_added >= NOW() - INTERVAL '30 days') AS disciples_30d,
			(SELECT COUNT(*) FROM workers) AS worker_count,
			(SELECT COUNT(*) FROM workers WHERE date_added >= NOW() - INTERVAL '30 days') AS workers_30d,
			(SELECT COUNT(*) FROM users) AS user_count,
			(SELECT COUNT(*) FROM users WHERE active = true) AS active_user_count,
			(SELECT COUNT(*) FROM users WHERE role = 'admin') AS admin_count,
			(SELECT COUNT(*) FROM users WHERE role = 'pastor') AS pastor_count,
			(SELECT COUNT(*) FROM users WHERE role = 'leader') AS leader_count,
			(SELECT COUNT(*) FROM users WHERE role = 'worker') AS worker_user_count
	`

	var stats DashboardStats

	err := h.db.QueryRowContext(ctx, query).Scan(
		&stats.Potentials.Total,
		&stats.Potentials.Converted,
		&stats.Potentials.AddedLast30d,
		&stats.Disciples.Total,
		&stats.Disciples.Workers,
		&stats.Disciples.AddedLast30d,
		&stats.Workers.Total,
		&stats.Workers.AddedLast30d,
		&stats.Users.Total,
		&stats.Users.Active,
		&stats.Users.Admins,
		&stats.Users.Pastors,
		&stats.Users.Leaders,
		&stats.Users.Workers,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard statistics"})
		return
	}
	stats.Potentials.Unconverted = stats.Potentials.Total - stats.Potentials.Converted

	// Conversions in the last 30 days come from the audit trail: the
	// is_disciple flag alone does not say when the conversion happened.
	_ = h.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit_logs
		WHERE action = 'convert' AND timestamp >= NOW() - INTERVAL '30 days'
	`).Scan(&stats.Potentials.ConvertedLast30d)

	// Location breakdown — top 10 locations by total records, optional.
	stats.ByLocation = []LocationCount{}
	_ = h.db.SelectContext(ctx, &stats.ByLocation, `
		SELECT
			location,
			COUNT(*) FILTER (WHERE source = 'p') AS potentials,
			COUNT(*) FILTER (WHERE source = 'd') AS disciples,
			COUNT(*) FILTER (WHERE source = 'w') AS workers
		FROM (
			SELECT location, 'p' AS source FROM potentials
			UNION ALL
			SELECT location, 'd' AS source FROM disciples
			UNION ALL
			SELECT location, 'w' AS source FROM workers
		) combined
		GROUP BY location
		ORDER BY COUNT(*) DESC
		LIMIT 10
	`)

	// Worker role breakdown — top 8, optional.
	stats.Workers.ByRole = []RoleCount{}
	_ = h.db.SelectContext(ctx, &stats.Workers.ByRole, `
		SELECT role, COUNT(*) AS count
		FROM workers
		GROUP BY role
		ORDER BY count DESC
		LIMIT 8
	`)

	// Recent mutation activity — last 10 audit entries with actor names.
	stats.RecentChanges = []RecentAuditEntry{}
	_ = h.db.SelectContext(ctx, &stats.RecentChanges, `
		SELECT a.action, a.table_name, a.record_id, u.username, a.timestamp
		FROM audit_logs a
		JOIN users u ON u.id = a.user_id
		ORDER BY a.timestamp DESC
		LIMIT 10
	`)

	c.JSON(http.StatusOK, stats)
}
