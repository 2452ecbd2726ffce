package models

import "time"

// AuditLog represents one append-only audit trail row. Exactly one row exists
// per committed mutation; the row is written in the same transaction as the
// mutation it records.
type AuditLog struct {
	ID        int64                  `json:"id"`
	Action    string                 `json:"action"`     // "create", "update", "delete", "convert"
	TableName string                 `json:"table_name"` // "potentials", "disciples", "workers", "users"
	RecordID  int64                  `json:"record_id"`
	UserID    int64                  `json:"user_id"`
	Timestamp time.Time              `json:"timestamp"` // UTC
	Changes   map[string]interface{} `json:"changes"`   // JSONB: shape depends on Action
}
