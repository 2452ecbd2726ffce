package models

import (
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// Potential represents a contact being tracked before conversion.
type Potential struct {
	ID          int64        `json:"id"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	ContactInfo *ContactInfo `json:"contact_info,omitempty"`
	Location    string       `json:"location"`
	Notes       *string      `json:"notes,omitempty"`
	DateAdded   time.Time    `json:"date_added"` // immutable after creation
	IsDisciple  bool         `json:"is_disciple"`
	LeaderID    int64        `json:"leader_id"`
}

// Resource returns the policy snapshot of this potential.
func (p *Potential) Resource() policy.Resource {
	return policy.Resource{LeaderID: p.LeaderID, Location: p.Location}
}

// AuditFields returns the canonical field map for change tracking. Timestamps
// are ISO-8601 strings and contact info is a plain map so the stored JSON is
// stable across reads and writes.
func (p *Potential) AuditFields() map[string]interface{} {
	return map[string]interface{}{
		"first_name":   p.FirstName,
		"last_name":    p.LastName,
		"contact_info": contactValue(p.ContactInfo),
		"location":     p.Location,
		"notes":        strOrNil(p.Notes),
		"date_added":   isoTime(p.DateAdded),
		"is_disciple":  p.IsDisciple,
		"leader_id":    p.LeaderID,
	}
}

// isoTime normalizes a timestamp to an ISO-8601 UTC string for audit storage.
func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func strOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func contactValue(c *ContactInfo) interface{} {
	if c == nil {
		return nil
	}
	return c.AuditValue()
}
