// Package models defines the persisted entities: users, potentials, disciples,
// workers, and audit log rows. Each tracked entity exposes AuditFields, the
// canonical field map the change tracker diffs and the audit trail stores.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ContactInfo holds the contact channels for a tracked person. All fields are
// optional. Stored as a JSONB column.
type ContactInfo struct {
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	Facebook  *string `json:"facebook,omitempty"`
	Twitter   *string `json:"twitter,omitempty"`
	Snapchat  *string `json:"snapchat,omitempty"`
	TikTok    *string `json:"tiktok,omitempty"`
}

// Value implements driver.Valuer so ContactInfo can be written to a JSONB column.
func (c ContactInfo) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner so ContactInfo can be read from a JSONB column.
func (c *ContactInfo) Scan(src interface{}) error {
	if src == nil {
		*c = ContactInfo{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into ContactInfo", src)
	}
	return json.Unmarshal(b, c)
}

// AuditValue returns the contact info as a plain map holding only set fields.
// The change tracker compares contact info structurally, so both sides of a
// diff must use the same canonical shape.
func (c ContactInfo) AuditValue() map[string]interface{} {
	m := make(map[string]interface{})
	set := func(key string, v *string) {
		if v != nil {
			m[key] = *v
		}
	}
	set("email", c.Email)
	set("phone", c.Phone)
	set("address", c.Address)
	set("instagram", c.Instagram)
	set("facebook", c.Facebook)
	set("twitter", c.Twitter)
	set("snapchat", c.Snapchat)
	set("tiktok", c.TikTok)
	return m
}
