// internal/repository/db_executor.go
package repository

import (
	"context"
	"database/sql"
)

// DBExecutor is the subset of sqlx used by the user repositories.
// *sqlx.DB satisfies it for request traffic; *sqlx.Tx satisfies it while the schema is applied.
type DBExecutor interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
