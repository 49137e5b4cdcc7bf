package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iyhunko/inventory-service/internal/repository"
)

// TransactionalRepository runs product writes and their outbox events in one
// database transaction, so an event exists only if its write was committed.
type TransactionalRepository struct {
	db *sql.DB
}

func NewTransactionalRepository(db *sql.DB) *TransactionalRepository {
	return &TransactionalRepository{db: db}
}

// WithinTransaction hands fn repositories bound to a fresh transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (tr *TransactionalRepository) WithinTransaction(ctx context.Context, fn func(products repository.ProductRepository, events repository.EventRepository) error) error {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	bound := conn{db: tr.db, txn: tx}
	if fnErr := fn(&ProductRepository{conn: bound}, &EventRepository{conn: bound}); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(fnErr, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return fnErr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
