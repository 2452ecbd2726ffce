package service

import (
	"context"
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/audit"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/safego"
	"github.com/outreach-tracker/outreach-tracker/internal/telemetry"
)

// shipAudit forwards a committed audit row to external destinations, fire and
// forget. Called only after the transaction commits; delivery failures are the
// shipper's problem and never surface to the request. Also bumps the audit
// entry counter, so it must be called exactly once per committed row.
func shipAudit(shipper audit.Shipper, entry *models.AuditLog) {
	telemetry.AuditEntriesTotal.WithLabelValues(entry.Action, entry.TableName).Inc()

	if shipper == nil {
		return
	}

	e := &audit.Entry{
		Timestamp: entry.Timestamp,
		Action:    entry.Action,
		TableName: entry.TableName,
		RecordID:  entry.RecordID,
		UserID:    entry.UserID,
		Changes:   entry.Changes,
	}
	safego.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shipper.Ship(ctx, e)
	})
}
