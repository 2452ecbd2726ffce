// Package repositories implements the data access layer (repository pattern) for the outreach tracker.
// Each repository type encapsulates all database queries for a domain entity.
// Handlers never issue SQL directly — all database access goes through this layer, which makes query logic testable in isolation and prevents accidental cross-domain data access.
package repositories

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql methods shared by *sql.DB and
// *sql.Tx. Repositories are constructed over a Querier, so the same queries
// run standalone on the pool or inside a service-scoped transaction. Audit
// rows are written through a tx-bound repository in the same transaction as
// the mutation they record.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)
