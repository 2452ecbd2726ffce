package models

import (
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// User represents an account that can log in and act on tracked entities.
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"`
	Role         policy.Role `json:"role"`
	Active       bool        `json:"active"`
	Location     *string     `json:"location,omitempty"` // set for pastors; scopes their Worker access
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// AuditFields returns the canonical field map for change tracking. The
// password hash never enters the audit trail.
func (u *User) AuditFields() map[string]interface{} {
	var loc interface{}
	if u.Location != nil {
		loc = *u.Location
	}
	return map[string]interface{}{
		"username": u.Username,
		"role":     string(u.Role),
		"active":   u.Active,
		"location": loc,
	}
}

// Actor returns the policy snapshot of this user.
func (u *User) Actor() policy.Actor {
	loc := ""
	if u.Location != nil {
		loc = *u.Location
	}
	return policy.Actor{ID: u.ID, Role: u.Role, Location: loc}
}
