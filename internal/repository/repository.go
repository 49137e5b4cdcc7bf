package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/iyhunko/inventory-service/internal/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("resource not found")
)

// ProductRepository defines the persistence gateway for products.
type ProductRepository interface {
	FindAll(ctx context.Context, query Query) ([]*model.Product, error)
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	// Save inserts the product when its ID is zero and updates it otherwise.
	Save(ctx context.Context, product *model.Product) (*model.Product, error)
	DeleteByID(ctx context.Context, id int64) error
	// FindByNameLike matches pattern against the product name, ignoring case.
	FindByNameLike(ctx context.Context, pattern string) ([]*model.Product, error)
	CountByStockAtMost(ctx context.Context, qnt int) (int64, error)
	DeleteByStockAtMost(ctx context.Context, qnt int) (int64, error)
}

// EventRepository defines the interface for the outbox events.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	ListPending(ctx context.Context, limit int) ([]*model.Event, error)
	UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error
}

// Transactor runs fn with repositories bound to a single store transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(products ProductRepository, events EventRepository) error) error
}

// ConstraintViolationError represents a store integrity constraint violation
// (NOT NULL, CHECK or UNIQUE).
type ConstraintViolationError struct {
	Code   string
	Detail string
}

func (c *ConstraintViolationError) Error() string {
	return "constraint violation (" + c.Code + "): " + c.Detail
}
