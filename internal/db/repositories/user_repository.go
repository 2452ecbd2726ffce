// user_repository.go implements UserRepository, providing database queries for
// account records. Accounts are never hard-deleted; Deactivate clears the
// active flag so historical audit rows keep a valid actor reference.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

// Create inserts a new user and fills in its generated ID
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	query := `
		INSERT INTO users (username, password_hash, role, active, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	return r.q.QueryRowContext(ctx, query,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.Active,
		user.Location,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, role, active, location, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, role, active, location, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	return scanUser(r.q.QueryRowContext(ctx, query, username))
}

// Update updates a user's information
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET username = $2, password_hash = $3, role = $4, active = $5, location = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.Active,
		user.Location,
		user.UpdatedAt,
	)

	return err
}

// Deactivate clears the active flag. Deactivated users cannot log in but
// remain referenced by their audit trail rows.
func (r *UserRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, query, id, time.Now())
	return err
}

// List retrieves a paginated list of users plus the total count
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM users`
	err := r.q.QueryRowContext(ctx, countQuery).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, username, password_hash, role, active, location, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Role,
			&user.Active,
			&user.Location,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	return users, total, rows.Err()
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&user.Location,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}
