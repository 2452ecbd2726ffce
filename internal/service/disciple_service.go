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

// DiscipleService orchestrates the lifecycle of disciple records.
type DiscipleService struct {
	db      *sql.DB
	shipper audit.Shipper
}

// NewDiscipleService creates a new DiscipleService.
func NewDiscipleService(database *sql.DB, shipper audit.Shipper) *DiscipleService {
	return &DiscipleService{db: database, shipper: shipper}
}

// DiscipleUpdate carries the updatable fields of a disciple. Nil fields are
// left unchanged.
type DiscipleUpdate struct {
	FirstName   *string
	LastName    *string
	ContactInfo *models.ContactInfo
	Location    *string
	Notes       *string
	IsWorker    *bool
}

// Create stores a new disciple and writes the create audit row in the same
// transaction. Disciples can also come into existence through the conversion
// workflow on PotentialService.
func (s *DiscipleService) Create(ctx context.Context, actor *models.User, d *models.Disciple) error {
	if d.LeaderID == 0 {
		d.LeaderID = actor.ID
	}
	d.DateAdded = time.Now().UTC()

	if dec := policy.Authorize(actor.Actor(), policy.ActionCreate, policy.KindDisciple, d.Resource()); !dec.Allowed {
		return forbidden(dec.Reason)
	}

	var entry *models.AuditLog
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repositories.NewDiscipleRepository(tx).Create(ctx, d); err != nil {
			return storageErr("create disciple", err)
		}
		entry = &models.AuditLog{
			Action:    "create",
			TableName: "disciples",
			RecordID:  d.ID,
			UserID:    actor.ID,
			Changes:   audit.CreateChanges(d.AuditFields()),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record disciple creation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	shipAudit(s.shipper, entry)
	return nil
}

// Get fetches a single disciple the actor is allowed to read.
func (s *DiscipleService) Get(ctx context.Context, actor *models.User, id int64) (*models.Disciple, error) {
	d, err := repositories.NewDiscipleRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("load disciple", err)
	}
	if d == nil {
		return nil, ErrNotFound
	}
	if dec := policy.Authorize(actor.Actor(), policy.ActionRead, policy.KindDisciple, d.Resource()); !dec.Allowed {
		return nil, forbidden(dec.Reason)
	}
	return d, nil
}

// List returns the disciples visible to the actor, filtered and paginated.
func (s *DiscipleService) List(ctx context.Context, actor *models.User, filters repositories.DiscipleFilters, limit, offset int) ([]*models.Disciple, int, error) {
	scope := policy.ListScope(actor.Actor(), policy.KindDisciple)
	disciples, total, err := repositories.NewDiscipleRepository(s.db).List(ctx, scope, filters, limit, offset)
	if err != nil {
		return nil, 0, storageErr("list disciples", err)
	}
	return disciples, total, nil
}

// Update applies the given field changes and records the field-level diff in
// the same transaction.
func (s *DiscipleService) Update(ctx context.Context, actor *models.User, id int64, upd DiscipleUpdate) (*models.Disciple, error) {
	var d *models.Disciple
	var entry *models.AuditLog

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repositories.NewDiscipleRepository(tx)

		var err error
		d, err = repo.GetByID(ctx, id)
		if err != nil {
			return storageErr("load disciple", err)
		}
		if d == nil {
			return ErrNotFound
		}
		if dec := policy.Authorize(actor.Actor(), policy.ActionUpdate, policy.KindDisciple, d.Resource()); !dec.Allowed {
			return forbidden(dec.Reason)
		}

		oldFields := d.AuditFields()
		if upd.FirstName != nil {
			d.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			d.LastName = *upd.LastName
		}
		if upd.ContactInfo != nil {
			d.ContactInfo = upd.ContactInfo
		}
		if upd.Location != nil {
			d.Location = *upd.Location
		}
		if upd.Notes != nil {
			d.Notes = upd.Notes
		}
		if upd.IsWorker != nil {
			d.IsWorker = *upd.IsWorker
		}

		if err := repo.Update(ctx, d); err != nil {
			return storageErr("update disciple", err)
		}

		entry = &models.AuditLog{
			Action:    "update",
			TableName: "disciples",
			RecordID:  d.ID,
			UserID:    actor.ID,
			Changes:   audit.UpdateChanges(oldFields, d.AuditFields(), "date_added"),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record disciple update", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	shipAudit(s.shipper, entry)
	return d, nil
}

// Delete removes a disciple and records the deletion with a final snapshot.
func (s *DiscipleService) Delete(ctx context.Context, actor *models.User, id int64) error {
	var entry *models.AuditLog

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repositories.NewDiscipleRepository(tx)

		d, err := repo.GetByID(ctx, id)
		if err != nil {
			return storageErr("load disciple", err)
		}
		if d == nil {
			return ErrNotFound
		}
		if dec := policy.Authorize(actor.Actor(), policy.ActionDelete, policy.KindDisciple, d.Resource()); !dec.Allowed {
			return forbidden(dec.Reason)
		}

		if err := repo.Delete(ctx, id); err != nil {
			return storageErr("delete disciple", err)
		}

		entry = &models.AuditLog{
			Action:    "delete",
			TableName: "disciples",
			RecordID:  id,
			UserID:    actor.ID,
			Changes:   audit.DeleteChanges(d.AuditFields()),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record disciple deletion", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	shipAudit(s.shipper, entry)
	return nil
}
