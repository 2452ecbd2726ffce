// disciple_repository.go implements DiscipleRepository, providing database queries
// for disciple records including scope-aware filtered listing.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// DiscipleRepository handles disciple database operations
type DiscipleRepository struct {
	q Querier
}

// NewDiscipleRepository creates a new DiscipleRepository
func NewDiscipleRepository(q Querier) *DiscipleRepository {
	return &DiscipleRepository{q: q}
}

// DiscipleFilters contains optional filters for listing disciples
type DiscipleFilters struct {
	IsWorker  *bool
	Location  *string
	StartDate *time.Time
	EndDate   *time.Time
}

// Create inserts a new disciple and fills in its generated ID
func (r *DiscipleRepository) Create(ctx context.Context, d *models.Disciple) error {
	if d.DateAdded.IsZero() {
		d.DateAdded = time.Now().UTC()
	}

	query := `
		INSERT INTO disciples (first_name, last_name, contact_info, location, notes, date_added, is_worker, leader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return r.q.QueryRowContext(ctx, query,
		d.FirstName,
		d.LastName,
		contactInfoArg(d.ContactInfo),
		d.Location,
		d.Notes,
		d.DateAdded,
		d.IsWorker,
		d.LeaderID,
	).Scan(&d.ID)
}

// GetByID retrieves a disciple by ID
func (r *DiscipleRepository) GetByID(ctx context.Context, id int64) (*models.Disciple, error) {
	query := `
		SELECT id, first_name, last_name, contact_info, location, notes, date_added, is_worker, leader_id
		FROM disciples
		WHERE id = $1
	`

	d := &models.Disciple{}
	var contactJSON []byte
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.FirstName,
		&d.LastName,
		&contactJSON,
		&d.Location,
		&d.Notes,
		&d.DateAdded,
		&d.IsWorker,
		&d.LeaderID,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if d.ContactInfo, err = scanContactInfo(contactJSON); err != nil {
		return nil, err
	}

	return d, nil
}

// Update writes the descriptive fields of a disciple. date_added and
// leader_id are never touched here.
func (r *DiscipleRepository) Update(ctx context.Context, d *models.Disciple) error {
	query := `
		UPDATE disciples
		SET first_name = $2, last_name = $3, contact_info = $4, location = $5, notes = $6, is_worker = $7
		WHERE id = $1
	`

	_, err := r.q.ExecContext(ctx, query,
		d.ID,
		d.FirstName,
		d.LastName,
		contactInfoArg(d.ContactInfo),
		d.Location,
		d.Notes,
		d.IsWorker,
	)

	return err
}

// Delete removes a disciple
func (r *DiscipleRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM disciples WHERE id = $1`
	_, err := r.q.ExecContext(ctx, query, id)
	return err
}

// List retrieves disciples visible under the given scope with optional
// filters and pagination, plus the total matching count.
func (r *DiscipleRepository) List(ctx context.Context, scope policy.Scope, filters DiscipleFilters, limit, offset int) ([]*models.Disciple, int, error) {
	if scope.Denied {
		return []*models.Disciple{}, 0, nil
	}

	countQuery := `SELECT COUNT(*) FROM disciples WHERE 1=1`
	query := `
		SELECT id, first_name, last_name, contact_info, location, notes, date_added, is_worker, leader_id
		FROM disciples
		WHERE 1=1
	`

	args := make([]interface{}, 0)
	paramIndex := 1

	if scope.LeaderID != nil {
		countQuery += fmt.Sprintf(` AND leader_id = $%d`, paramIndex)
		query += fmt.Sprintf(` AND leader_id = $%d`, paramIndex)
		args = append(args, *scope.LeaderID)
		paramIndex++
	}

	if scope.Location != nil {
		countQuery += fmt.Sprintf(` AND location = $%d`, paramIndex)
		query += fmt.Sprintf(` AND location = $%d`, paramIndex)
		args = append(args, *scope.Location)
		paramIndex++
	}

	if filters.IsWorker != nil {
		countQuery += fmt.Sprintf(` AND is_worker = $%d`, paramIndex)
		query += fmt.Sprintf(` AND is_worker = $%d`, paramIndex)
		args = append(args, *filters.IsWorker)
		paramIndex++
	}

	if filters.Location != nil {
		countQuery += fmt.Sprintf(` AND location = $%d`, paramIndex)
		query += fmt.Sprintf(` AND location = $%d`, paramIndex)
		args = append(args, *filters.Location)
		paramIndex++
	}

	if filters.StartDate != nil {
		countQuery += fmt.Sprintf(` AND date_added >= $%d`, paramIndex)
		query += fmt.Sprintf(` AND date_added >= $%d`, paramIndex)
		args = append(args, *filters.StartDate)
		paramIndex++
	}

	if filters.EndDate != nil {
		countQuery += fmt.Sprintf(` AND date_added <= $%d`, paramIndex)
		query += fmt.Sprintf(` AND date_added <= $%d`, paramIndex)
		args = append(args, *filters.EndDate)
		paramIndex++
	}

	var total int
	err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY date_added DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	disciples := make([]*models.Disciple, 0)
	for rows.Next() {
		d := &models.Disciple{}
		var contactJSON []byte
		err := rows.Scan(
			&d.ID,
			&d.FirstName,
			&d.LastName,
			&contactJSON,
			&d.Location,
			&d.Notes,
			&d.DateAdded,
			&d.IsWorker,
			&d.LeaderID,
		)
		if err != nil {
			return nil, 0, err
		}
		if d.ContactInfo, err = scanContactInfo(contactJSON); err != nil {
			return nil, 0, err
		}
		disciples = append(disciples, d)
	}

	return disciples, total, rows.Err()
}
