// worker_repository.go implements WorkerRepository, providing database queries
// for worker records including scope-aware filtered listing.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// WorkerRepository handles worker database operations
type WorkerRepository struct {
	q Querier
}

// NewWorkerRepository creates a new WorkerRepository
func NewWorkerRepository(q Querier) *WorkerRepository {
	return &WorkerRepository{q: q}
}

// WorkerFilters contains optional filters for listing workers
type WorkerFilters struct {
	Location *string
	Role     *string
}

// Create inserts a new worker and fills in its generated ID
func (r *WorkerRepository) Create(ctx context.Context, w *models.Worker) error {
	if w.DateAdded.IsZero() {
		w.DateAdded = time.Now().UTC()
	}

	query := `
		INSERT INTO workers (first_name, last_name, contact_info, location, notes, role, date_added, leader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return r.q.QueryRowContext(ctx, query,
		w.FirstName,
		w.LastName,
		contactInfoArg(w.ContactInfo),
		w.Location,
		w.Notes,
		w.Role,
		w.DateAdded,
		w.LeaderID,
	).Scan(&w.ID)
}

// GetByID retrieves a worker by ID
func (r *WorkerRepository) GetByID(ctx context.Context, id int64) (*models.Worker, error) {
	query := `
		SELECT id, first_name, last_name, contact_info, location, notes, role, date_added, leader_id
		FROM workers
		WHERE id = $1
	`

	w := &models.Worker{}
	var contactJSON []byte
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&w.ID,
		&w.FirstName,
		&w.LastName,
		&contactJSON,
		&w.Location,
		&w.Notes,
		&w.Role,
		&w.DateAdded,
		&w.LeaderID,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if w.ContactInfo, err = scanContactInfo(contactJSON); err != nil {
		return nil, err
	}

	return w, nil
}

// Update writes the descriptive fields of a worker. date_added and leader_id
// are never touched here.
func (r *WorkerRepository) Update(ctx context.Context, w *models.Worker) error {
	query := `
		UPDATE workers
		SET first_name = $2, last_name = $3, contact_info = $4, location = $5, notes = $6, role = $7
		WHERE id = $1
	`

	_, err := r.q.ExecContext(ctx, query,
		w.ID,
		w.FirstName,
		w.LastName,
		contactInfoArg(w.ContactInfo),
		w.Location,
		w.Notes,
		w.Role,
	)

	return err
}

// Delete removes a worker
func (r *WorkerRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM workers WHERE id = $1`
	_, err := r.q.ExecContext(ctx, query, id)
	return err
}

// List retrieves workers visible under the given scope with optional filters
// and pagination, plus the total matching count.
func (r *WorkerRepository) List(ctx context.Context, scope policy.Scope, filters WorkerFilters, limit, offset int) ([]*models.Worker, int, error) {
	if scope.Denied {
		return []*models.Worker{}, 0, nil
	}

	countQuery := `SELECT COUNT(*) FROM workers WHERE 1=1`
	query := `
		SELECT id, first_name, last_name, contact_info, location, notes, role, date_added, leader_id
		FROM workers
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

	if filters.Location != nil {
		countQuery += fmt.Sprintf(` AND location = $%d`, paramIndex)
		query += fmt.Sprintf(` AND location = $%d`, paramIndex)
		args = append(args, *filters.Location)
		paramIndex++
	}

	if filters.Role != nil {
		countQuery += fmt.Sprintf(` AND role = $%d`, paramIndex)
		query += fmt.Sprintf(` AND role = $%d`, paramIndex)
		args = append(args, *filters.Role)
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

	workers := make([]*models.Worker, 0)
	for rows.Next() {
		w := &models.Worker{}
		var contactJSON []byte
		err := rows.Scan(
			&w.ID,
			&w.FirstName,
			&w.LastName,
			&contactJSON,
			&w.Location,
			&w.Notes,
			&w.Role,
			&w.DateAdded,
			&w.LeaderID,
		)
		if err != nil {
			return nil, 0, err
		}
		if w.ContactInfo, err = scanContactInfo(contactJSON); err != nil {
			return nil, 0, err
		}
		workers = append(workers, w)
	}

	return workers, total, rows.Err()
}
