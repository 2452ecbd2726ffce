// audit_repository.go implements AuditRepository, providing database queries for
// writing and retrieving audit trail entries with support for filtered queries.
//
// Create must run on the same transaction as the mutation it records: build
// the repository over the *sql.Tx inside db.WithTx. A rolled-back mutation
// then leaves no audit row, and a committed audit row always describes a
// mutation that took effect.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
)

// AuditRepository handles audit trail database operations
type AuditRepository struct {
	q Querier
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(q Querier) *AuditRepository {
	return &AuditRepository{q: q}
}

// AuditFilters contains filters for querying audit logs
type AuditFilters struct {
	UserID    *int64
	Action    *string
	TableName *string
	RecordID  *int64
	StartDate *time.Time
	EndDate   *time.Time
}

// Create writes a new audit trail row and fills in its generated ID.
// The Changes payload is required: an entry with no payload would be
// unreconstructable, so it is rejected rather than silently stored empty.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.Changes == nil {
		return fmt.Errorf("audit entry for %s %s/%d has no changes payload", log.Action, log.TableName, log.RecordID)
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}

	changesJSON, err := json.Marshal(log.Changes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_logs (action, table_name, record_id, user_id, timestamp, changes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.q.QueryRowContext(ctx, query,
		log.Action,
		log.TableName,
		log.RecordID,
		log.UserID,
		log.Timestamp,
		changesJSON,
	).Scan(&log.ID)
}

// List retrieves audit logs with optional filters and pagination
func (r *AuditRepository) List(ctx context.Context, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int, error) {
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE 1=1`
	query := `
		SELECT id, action, table_name, record_id, user_id, timestamp, changes
		FROM audit_logs
		WHERE 1=1
	`

	args := make([]interface{}, 0)
	paramIndex := 1

	if filters.UserID != nil {
		countQuery += fmt.Sprintf(` AND user_id = $%d`, paramIndex)
		query += fmt.Sprintf(` AND user_id = $%d`, paramIndex)
		args = append(args, *filters.UserID)
		paramIndex++
	}

	if filters.Action != nil {
		countQuery += fmt.Sprintf(` AND action = $%d`, paramIndex)
		query += fmt.Sprintf(` AND action = $%d`, paramIndex)
		args = append(args, *filters.Action)
		paramIndex++
	}

	if filters.TableName != nil {
		countQuery += fmt.Sprintf(` AND table_name = $%d`, paramIndex)
		query += fmt.Sprintf(` AND table_name = $%d`, paramIndex)
		args = append(args, *filters.TableName)
		paramIndex++
	}

	if filters.RecordID != nil {
		countQuery += fmt.Sprintf(` AND record_id = $%d`, paramIndex)
		query += fmt.Sprintf(` AND record_id = $%d`, paramIndex)
		args = append(args, *filters.RecordID)
		paramIndex++
	}

	if filters.StartDate != nil {
		countQuery += fmt.Sprintf(` AND timestamp >= $%d`, paramIndex)
		query += fmt.Sprintf(` AND timestamp >= $%d`, paramIndex)
		args = append(args, *filters.StartDate)
		paramIndex++
	}

	if filters.EndDate != nil {
		countQuery += fmt.Sprintf(` AND timestamp <= $%d`, paramIndex)
		query += fmt.Sprintf(` AND timestamp <= $%d`, paramIndex)
		args = append(args, *filters.EndDate)
		paramIndex++
	}

	var total int
	err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		log := &models.AuditLog{}
		var changesJSON []byte

		err := rows.Scan(
			&log.ID,
			&log.Action,
			&log.TableName,
			&log.RecordID,
			&log.UserID,
			&log.Timestamp,
			&changesJSON,
		)
		if err != nil {
			return nil, 0, err
		}

		if err := json.Unmarshal(changesJSON, &log.Changes); err != nil {
			return nil, 0, err
		}

		logs = append(logs, log)
	}

	return logs, total, rows.Err()
}

// GetByID retrieves a single audit trail entry by ID
func (r *AuditRepository) GetByID(ctx context.Context, id int64) (*models.AuditLog, error) {
	query := `
		SELECT id, action, table_name, record_id, user_id, timestamp, changes
		FROM audit_logs
		WHERE id = $1
	`

	log := &models.AuditLog{}
	var changesJSON []byte

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&log.ID,
		&log.Action,
		&log.TableName,
		&log.RecordID,
		&log.UserID,
		&log.Timestamp,
		&changesJSON,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(changesJSON, &log.Changes); err != nil {
		return nil, err
	}

	return log, nil
}
