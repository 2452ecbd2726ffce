package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/audit"
	"github.com/outreach-tracker/outreach-tracker/internal/db"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/db/repositories"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// WorkerService orchestrates the lifecycle of worker records.
type WorkerService struct {
	db      *sql.DB
	shipper audit.Shipper
}

// NewWorkerService creates a new WorkerService.
func NewWorkerService(database *sql.DB, shipper audit.Shipper) *WorkerService {
	return &WorkerService{db: database, shipper: shipper}
}

// WorkerUpdate carries the updatable fields of a worker. Nil fields are left
// unchanged.
type WorkerUpdate struct {
	FirstName   *string
	LastName    *string
	ContactInfo *models.ContactInfo
	Location    *string
	Notes       *string
	Role        *string
}

// Create stores a new worker and writes the create audit row in the same
// transaction. Leaders create workers under themselves; pastors may create
// workers in their own location under any leader.
func (s *WorkerService) Create(ctx context.Context, actor *models.User, w *models.Worker) error {
	if w.LeaderID == 0 {
		w.LeaderID = actor.ID
	}
	w.DateAdded = time.Now().UTC()

	if dec := policy.Authorize(actor.Actor(), policy.ActionCreate, policy.KindWorker, w.Resource()); !dec.Allowed {
		return forbidden(dec.Reason)
	}

	var entry *models.AuditLog
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repositories.NewWorkerRepository(tx).Create(ctx, w); err != nil {
			return storageErr("create worker", err)
		}
		entry = &models.AuditLog{
			Action:    "create",
			TableName: "workers",
			RecordID:  w.ID,
			UserID:    actor.ID,
			Changes:   audit.CreateChanges(w.AuditFields()),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record worker creation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	shipAudit(s.shipper, entry)
	return nil
}

// Get fetches a single worker the actor is allowed to read.
func (s *WorkerService) Get(ctx context.Context, actor *models.User, id int64) (*models.Worker, error) {
	w, err := repositories.NewWorkerRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("load worker", err)
	}
	if w == nil {
		return nil, ErrNotFound
	}
	if dec := policy.Authorize(actor.Actor(), policy.ActionRead, policy.KindWorker, w.Resource()); !dec.Allowed {
		return nil, forbidden(dec.Reason)
	}
	return w, nil
}

// List returns the workers visible to the actor, filtered and paginated.
func (s *WorkerService) List(ctx context.Context, actor *models.User, filters repositories.WorkerFilters, limit, offset int) ([]*models.Worker, int, error) {
	scope := policy.ListScope(actor.Actor(), policy.KindWorker)
	workers, total, err := repositories.NewWorkerRepository(s.db).List(ctx, scope, filters, limit, offset)
	if err != nil {
		return nil, 0, storageErr("list workers", err)
	}
	return workers, total, nil
}

// Update applies the given field changes and records the field-level diff in
// the same transaction.
func (s *WorkerService) Update(ctx context.Context, actor *models.User, id int64, upd WorkerUpdate) (*models.Worker, error) {
	var w *models.Worker
	var entry *models.AuditLog

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repositories.NewWorkerRepository(tx)

		var err error
		w, err = repo.GetByID(ctx, id)
		if err != nil {
			return storageErr("load worker", err)
		}
		if w == nil {
			return ErrNotFound
		}
		if dec := policy.Authorize(actor.Actor(), policy.ActionUpdate, policy.KindWorker, w.Resource()); !dec.Allowed {
			return forbidden(dec.Reason)
		}

		oldFields := w.AuditFields()
		if upd.FirstName != nil {
			w.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			w.LastName = *upd.LastName
		}
		if upd.ContactInfo != nil {
			w.ContactInfo = upd.ContactInfo
		}
		if upd.Location != nil {
			w.Location = *upd.Location
		}
		if upd.Notes != nil {
			w.Notes = upd.Notes
		}
		if upd.Role != nil {
			w.Role = *upd.Role
		}

		if err := repo.Update(ctx, w); err != nil {
			return storageErr("update worker", err)
		}

		entry = &models.AuditLog{
			Action:    "update",
			TableName: "workers",
			RecordID:  w.ID,
			UserID:    actor.ID,
			Changes:   audit.UpdateChanges(oldFields, w.AuditFields(), "date_added"),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record worker update", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	shipAudit(s.shipper, entry)
	return w, nil
}

// Delete removes a worker and records the deletion with a final snapshot.
func (s *WorkerService) Delete(ctx context.Context, actor *models.User, id int64) error {
	var entry *models.AuditLog

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repositories.NewWorkerRepository(tx)

		w, err := repo.GetByID(ctx, id)
		if err != nil {
			return storageErr("load worker", err)
		}
		if w == nil {
			return ErrNotFound
		}
		if dec := policy.Authorize(actor.Actor(), policy.ActionDelete, policy.KindWorker, w.Resource()); !dec.Allowed {
			return forbidden(dec.Reason)
		}

		if err := repo.Delete(ctx, id); err != nil {
			return storageErr("delete worker", err)
		}

		entry = &models.AuditLog{
			Action:    "delete",
			TableName: "workers",
			RecordID:  id,
			UserID:    actor.ID,
			Changes:   audit.DeleteChanges(w.AuditFields()),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record worker deletion", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	shipAudit(s.shipper, entry)
	return nil
}
