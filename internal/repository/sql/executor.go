package sql

import (
	"context"
	"database/sql"
)

// dbExecutor is satisfied by both *sql.DB and *sql.Tx.
type dbExecutor interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// conn binds a repository to the connection pool, or to a transaction when
// the repository was handed out by TransactionalRepository.
type conn struct {
	db  *sql.DB
	txn *sql.Tx
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (c conn) getExecutor() dbExecutor {
	if c.txn != nil {
		return c.txn
	}
	return c.db
}
