package models

import (
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// Worker represents a staff member serving under a leader.
type Worker struct {
	ID          int64        `json:"id"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	ContactInfo *ContactInfo `json:"contact_info,omitempty"`
	Location    string       `json:"location"`
	Notes       *string      `json:"notes,omitempty"`
	Role        string       `json:"role"`       // ministry role, free-form (e.g. "usher", "musician")
	DateAdded   time.Time    `json:"date_added"` // immutable after creation
	LeaderID    int64        `json:"leader_id"`
}

// Resource returns the policy snapshot of this worker.
func (w *Worker) Resource() policy.Resource {
	return policy.Resource{LeaderID: w.LeaderID, Location: w.Location}
}

// AuditFields returns the canonical field map for change tracking.
func (w *Worker) AuditFields() map[string]interface{} {
	return map[string]interface{}{
		"first_name":   w.FirstName,
		"last_name":    w.LastName,
		"contact_info": contactValue(w.ContactInfo),
		"location":     w.Location,
		"notes":        strOrNil(w.Notes),
		"role":         w.Role,
		"date_added":   isoTime(w.DateAdded),
		"leader_id":    w.LeaderID,
	}
}
