package models

import (
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// Disciple represents a converted contact.
type Disciple struct {
	ID          int64        `json:"id"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	ContactInfo *ContactInfo `json:"contact_info,omitempty"`
	Location    string       `json:"location"`
	Notes       *string      `json:"notes,omitempty"`
	DateAdded   time.Time    `json:"date_added"` // immutable after creation
	IsWorker    bool         `json:"is_worker"`
	LeaderID    int64        `json:"leader_id"`
}

// Resource returns the policy snapshot of this disciple.
func (d *Disciple) Resource() policy.Resource {
	return policy.Resource{LeaderID: d.LeaderID, Location: d.Location}
}

// AuditFields returns the canonical field map for change tracking.
func (d *Disciple) AuditFields() map[string]interface{} {
	return map[string]interface{}{
		"first_name":   d.FirstName,
		"last_name":    d.LastName,
		"contact_info": contactValue(d.ContactInfo),
		"location":     d.Location,
		"notes":        strOrNil(d.Notes),
		"date_added":   isoTime(d.DateAdded),
		"is_worker":    d.IsWorker,
		"leader_id":    d.LeaderID,
	}
}
