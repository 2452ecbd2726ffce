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
	"github.com/outreach-tracker/outreach-tracker/internal/telemetry"
)

// PotentialService orchestrates the lifecycle of potential records.
type PotentialService struct {
	db      *sql.DB
	shipper audit.Shipper
}

// NewPotentialService creates a new PotentialService. shipper may be nil when
// no external audit destinations are configured.
func NewPotentialService(database *sql.DB, shipper audit.Shipper) *PotentialService {
	return &PotentialService{db: database, shipper: shipper}
}

// PotentialUpdate carries the updatable fields of a potential. Nil fields are
// left unchanged. date_added, is_disciple, and leader_id are not updatable
// through this path.
type PotentialUpdate struct {
	FirstName   *string
	LastName    *string
	ContactInfo *models.ContactInfo
	Location    *string
	Notes       *string
}

// Create stores a new potential owned by the actor (or the explicit leader on
// the record) and writes the create audit row in the same transaction.
func (s *PotentialService) Create(ctx context.Context, actor *models.User, p *models.Potential) error {
	if p.LeaderID == 0 {
		p.LeaderID = actor.ID
	}
	p.IsDisciple = false
	p.DateAdded = time.Now().UTC()

	if d := policy.Authorize(actor.Actor(), policy.ActionCreate, policy.KindPotential, p.Resource()); !d.Allowed {
		return forbidden(d.Reason)
	}

	var entry *models.AuditLog
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repositories.NewPotentialRepository(tx).Create(ctx, p); err != nil {
			return storageErr("create potential", err)
		}
		entry = &models.AuditLog{
			Action:    "create",
			TableName: "potentials",
			RecordID:  p.ID,
			UserID:    actor.ID,
			Changes:   audit.CreateChanges(p.AuditFields()),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record potential creation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	shipAudit(s.shipper, entry)
	return nil
}

// Get fetches a single potential the actor is allowed to read.
func (s *PotentialService) Get(ctx context.Context, actor *models.User, id int64) (*models.Potential, error) {
	p, err := repositories.NewPotentialRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("load potential", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if d := policy.Authorize(actor.Actor(), policy.ActionRead, policy.KindPotential, p.Resource()); !d.Allowed {
		return nil, forbidden(d.Reason)
	}
	return p, nil
}

// List returns the potentials visible to the actor, filtered and paginated.
func (s *PotentialService) List(ctx context.Context, actor *models.User, filters repositories.PotentialFilters, limit, offset int) ([]*models.Potential, int, error) {
	scope := policy.ListScope(actor.Actor(), policy.KindPotential)
	potentials, total, err := repositories.NewPotentialRepository(s.db).List(ctx, scope, filters, limit, offset)
	if err != nil {
		return nil, 0, storageErr("list potentials", err)
	}
	return potentials, total, nil
}

// Update applies the given field changes and records the field-level diff in
// the same transaction. A no-op update still commits and records an empty
// change set.
func (s *PotentialService) Update(ctx context.Context, actor *models.User, id int64, upd PotentialUpdate) (*models.Potential, error) {
	var p *models.Potential
	var entry *models.AuditLog

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repositories.NewPotentialRepository(tx)

		var err error
		p, err = repo.GetByID(ctx, id)
		if err != nil {
			return storageErr("load potential", err)
		}
		if p == nil {
			return ErrNotFound
		}
		if d := policy.Authorize(actor.Actor(), policy.ActionUpdate, policy.KindPotential, p.Resource()); !d.Allowed {
			return forbidden(d.Reason)
		}

		oldFields := p.AuditFields()
		if upd.FirstName != nil {
			p.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			p.LastName = *upd.LastName
		}
		if upd.ContactInfo != nil {
			p.ContactInfo = upd.ContactInfo
		}
		if upd.Location != nil {
			p.Location = *upd.Location
		}
		if upd.Notes != nil {
			p.Notes = upd.Notes
		}

		if err := repo.Update(ctx, p); err != nil {
			return storageErr("update potential", err)
		}

		entry = &models.AuditLog{
			Action:    "update",
			TableName: "potentials",
			RecordID:  p.ID,
			UserID:    actor.ID,
			Changes:   audit.UpdateChanges(oldFields, p.AuditFields(), "date_added"),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record potential update", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	shipAudit(s.shipper, entry)
	return p, nil
}

// Delete removes a potential and records the deletion with a final snapshot.
func (s *PotentialService) Delete(ctx context.Context, actor *models.User, id int64) error {
	var entry *models.AuditLog

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repositories.NewPotentialRepository(tx)

		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return storageErr("load potential", err)
		}
		if p == nil {
			return ErrNotFound
		}
		if d := policy.Authorize(actor.Actor(), policy.ActionDelete, policy.KindPotential, p.Resource()); !d.Allowed {
			return forbidden(d.Reason)
		}

		if err := repo.Delete(ctx, id); err != nil {
			return storageErr("delete potential", err)
		}

		entry = &models.AuditLog{
			Action:    "delete",
			TableName: "potentials",
			RecordID:  id,
			UserID:    actor.ID,
			Changes:   audit.DeleteChanges(p.AuditFields()),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record potential deletion", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	shipAudit(s.shipper, entry)
	return nil
}

// Convert turns a potential into a disciple: the new disciple copies the
// descriptive fields, is owned by the converting actor, and starts as a
// non-worker. The potential keeps existing with is_disciple set, and a single
// convert audit row on the potentials table links the two records. Converting
// twice is a precondition failure, not an access denial.
func (s *PotentialService) Convert(ctx context.Context, actor *models.User, id int64) (*models.Disciple, error) {
	var d *models.Disciple
	var entry *models.AuditLog

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		potRepo := repositories.NewPotentialRepository(tx)

		p, err := potRepo.GetByID(ctx, id)
		if err != nil {
			return storageErr("load potential", err)
		}
		if p == nil {
			return ErrNotFound
		}
		if dec := policy.Authorize(actor.Actor(), policy.ActionConvert, policy.KindPotential, p.Resource()); !dec.Allowed {
			return forbidden(dec.Reason)
		}
		if p.IsDisciple {
			return &PreconditionError{Message: "potential has already been converted"}
		}

		d = &models.Disciple{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			ContactInfo: p.ContactInfo,
			Location:    p.Location,
			Notes:       p.Notes,
			IsWorker:    false,
			LeaderID:    actor.ID,
		}
		if err := repositories.NewDiscipleRepository(tx).Create(ctx, d); err != nil {
			return storageErr("create disciple", err)
		}
		if err := potRepo.MarkConverted(ctx, id); err != nil {
			return storageErr("mark potential converted", err)
		}

		entry = &models.AuditLog{
			Action:    "convert",
			TableName: "potentials",
			RecordID:  p.ID,
			UserID:    actor.ID,
			Changes:   audit.ConvertChanges(d.ID),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record conversion", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.ConversionsTotal.Inc()
	shipAudit(s.shipper, entry)
	return d, nil
}
