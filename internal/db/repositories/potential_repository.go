// potential_repository.go implements PotentialRepository, providing database queries
// for potential records including scope-aware filtered listing.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// PotentialRepository handles potential database operations
type PotentialRepository struct {
	q Querier
}

// NewPotentialRepository creates a new PotentialRepository
func NewPotentialRepository(q Querier) *PotentialRepository {
	return &PotentialRepository{q: q}
}

// PotentialFilters contains optional filters for listing potentials
type PotentialFilters struct {
	IsDisciple *bool
	Location   *string
	StartDate  *time.Time
	EndDate    *time.Time
}

// Create inserts a new potential and fills in its generated ID
func (r *PotentialRepository) Create(ctx context.Context, p *models.Potential) error {
	if p.DateAdded.IsZero() {
		p.DateAdded = time.Now().UTC()
	}

	query := `
		INSERT INTO potentials (first_name, last_name, contact_info, location, notes, date_added, is_disciple, leader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return r.q.QueryRowContext(ctx, query,
		p.FirstName,
		p.LastName,
		contactInfoArg(p.ContactInfo),
		p.Location,
		p.Notes,
		p.DateAdded,
		p.IsDisciple,
		p.LeaderID,
	).Scan(&p.ID)
}

// GetByID retrieves a potential by ID
func (r *PotentialRepository) GetByID(ctx context.Context, id int64) (*models.Potential, error) {
	query := `
		SELECT id, first_name, last_name, contact_info, location, notes, date_added, is_disciple, leader_id
		FROM potentials
		WHERE id = $1
	`

	p := &models.Potential{}
	var contactJSON []byte
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&contactJSON,
		&p.Location,
		&p.Notes,
		&p.DateAdded,
		&p.IsDisciple,
		&p.LeaderID,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if p.ContactInfo, err = scanContactInfo(contactJSON); err != nil {
		return nil, err
	}

	return p, nil
}

// Update writes the descriptive fields of a potential. date_added, is_disciple,
// and leader_id are never touched here: the first is immutable, the other two
// change only through the conversion workflow and creation respectively.
func (r *PotentialRepository) Update(ctx context.Context, p *models.Potential) error {
	query := `
		UPDATE potentials
		SET first_name = $2, last_name = $3, contact_info = $4, location = $5, notes = $6
		WHERE id = $1
	`

	_, err := r.q.ExecContext(ctx, query,
		p.ID,
		p.FirstName,
		p.LastName,
		contactInfoArg(p.ContactInfo),
		p.Location,
		p.Notes,
	)

	return err
}

// MarkConverted flips the is_disciple flag
func (r *PotentialRepository) MarkConverted(ctx context.Context, id int64) error {
	query := `UPDATE potentials SET is_disciple = TRUE WHERE id = $1`
	_, err := r.q.ExecContext(ctx, query, id)
	return err
}

// Delete removes a potential
func (r *PotentialRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM potentials WHERE id = $1`
	_, err := r.q.ExecContext(ctx, query, id)
	return err
}

// List retrieves potentials visible under the given scope with optional
// filters and pagination, plus the total matching count.
func (r *PotentialRepository) List(ctx context.Context, scope policy.Scope, filters PotentialFilters, limit, offset int) ([]*models.Potential, int, error) {
	if scope.Denied {
		return []*models.Potential{}, 0, nil
	}

	countQuery := `SELECT COUNT(*) FROM potentials WHERE 1=1`
	query := `
		SELECT id, first_name, last_name, contact_info, location, notes, date_added, is_disciple, leader_id
		FROM potentials
		WHERE 1=1
	`

	args := make([]interface{}, 0)
	paramIndex := 1

	// Apply scope
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

	// Apply filters
	if filters.IsDisciple != nil {
		countQuery += fmt.Sprintf(` AND is_disciple = $%d`, paramIndex)
		query += fmt.Sprintf(` AND is_disciple = $%d`, paramIndex)
		args = append(args, *filters.IsDisciple)
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

	// Get total count
	var total int
	err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	// Add ordering and pagination
	query += fmt.Sprintf(` ORDER BY date_added DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	potentials := make([]*models.Potential, 0)
	for rows.Next() {
		p := &models.Potential{}
		var contactJSON []byte
		err := rows.Scan(
			&p.ID,
			&p.FirstName,
			&p.LastName,
			&contactJSON,
			&p.Location,
			&p.Notes,
			&p.DateAdded,
			&p.IsDisciple,
			&p.LeaderID,
		)
		if err != nil {
			return nil, 0, err
		}
		if p.ContactInfo, err = scanContactInfo(contactJSON); err != nil {
			return nil, 0, err
		}
		potentials = append(potentials, p)
	}

	return potentials, total, rows.Err()
}

// contactInfoArg converts an optional ContactInfo to a query argument,
// preserving NULL for absent contact info.
func contactInfoArg(c *models.ContactInfo) interface{} {
	if c == nil {
		return nil
	}
	return *c
}

// scanContactInfo decodes a JSONB contact_info column, returning nil for NULL.
func scanContactInfo(data []byte) (*models.ContactInfo, error) {
	if data == nil {
		return nil, nil
	}
	c := &models.ContactInfo{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}
