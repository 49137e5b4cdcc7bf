// Package memory provides in-process implementations of the repository
// interfaces. It backs the service when DB_DRIVER=memory and in tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/inventory-service/internal/model"
	"github.com/iyhunko/inventory-service/internal/repository"
)

// Check constraint codes mirrored from the produto table.
const checkViolationCode = "23514"

type state struct {
	products map[int64]model.Product
	nextID   int64
	events   []model.Event
}

func (s state) clone() state {
	return state{
		products: maps.Clone(s.products),
		nextID:   s.nextID,
		events:   slices.Clone(s.events),
	}
}

// Store holds products and outbox events guarded by a single mutex.
type Store struct {
	mu sync.Mutex
	state
}

// NewStore creates an empty Store. IDs start at 1.
func NewStore() *Store {
	return &Store{state: state{products: make(map[int64]model.Product)}}
}

// Products returns a ProductRepository backed by the store.
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{store: s}
}

// Events returns an EventRepository backed by the store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{store: s}
}

// WithinTransaction runs fn while holding the store lock. Every change fn made
// is discarded when it returns an error.
func (s *Store) WithinTransaction(ctx context.Context, fn func(products repository.ProductRepository, events repository.EventRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&ProductRepository{store: s, inTx: true}, &EventRepository{store: s, inTx: true}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) guard(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ProductRepository is the in-memory repository.ProductRepository.
type ProductRepository struct {
	store *Store
	inTx  bool
}

func (r *ProductRepository) FindAll(_ context.Context, query repository.Query) ([]*model.Product, error) {
	defer r.store.guard(r.inTx)()

	products := r.sorted(func(p model.Product) bool {
		return query.Paginator == nil || p.ID > query.Paginator.LastID
	})
	if query.Limit > 0 && len(products) > query.Limit {
		products = products[:query.Limit]
	}
	return products, nil
}

func (r *ProductRepository) FindByID(_ context.Context, id int64) (*model.Product, error) {
	defer r.store.guard(r.inTx)()

	product, ok := r.store.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
	}
	return &product, nil
}

func (r *ProductRepository) Save(_ context.Context, product *model.Product) (*model.Product, error) {
	defer r.store.guard(r.inTx)()

	if err := checkConstraints(product); err != nil {
		return nil, err
	}

	if product.ID == 0 {
		r.store.nextID++
		product.ID = r.store.nextID
	} else if _, ok := r.store.products[product.ID]; !ok {
		return nil, fmt.Errorf("product %d: %w", product.ID, repository.ErrNotFound)
	}

	r.store.products[product.ID] = *product
	return product, nil
}

func (r *ProductRepository) DeleteByID(_ context.Context, id int64) error {
	defer r.store.guard(r.inTx)()

	if _, ok := r.store.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
	}
	delete(r.store.products, id)
	return nil
}

// FindByNameLike applies SQL ILIKE semantics: % matches any run of characters
// and _ matches a single one.
func (r *ProductRepository) FindByNameLike(_ context.Context, pattern string) ([]*model.Product, error) {
	re, err := likeToRegexp(pattern)
	if err != nil {
		return nil, err
	}

	defer r.store.guard(r.inTx)()

	return r.sorted(func(p model.Product) bool {
		return re.MatchString(p.Name)
	}), nil
}

func (r *ProductRepository) CountByStockAtMost(_ context.Context, qnt int) (int64, error) {
	defer r.store.guard(r.inTx)()

	var count int64
	for _, p := range r.store.products {
		if p.StockQuantity <= qnt {
			count++
		}
	}
	return count, nil
}

func (r *ProductRepository) DeleteByStockAtMost(_ context.Context, qnt int) (int64, error) {
	defer r.store.guard(r.inTx)()

	var deleted int64
	for id, p := range r.store.products {
		if p.StockQuantity <= qnt {
			delete(r.store.products, id)
			deleted++
		}
	}
	return deleted, nil
}

// sorted returns copies of the products accepted by keep, ordered by ID.
// Callers hold the lock.
func (r *ProductRepository) sorted(keep func(model.Product) bool) []*model.Product {
	ids := slices.Sorted(maps.Keys(r.store.products))

	products := []*model.Product{}
	for _, id := range ids {
		p := r.store.products[id]
		if keep(p) {
			products = append(products, &p)
		}
	}
	return products
}

func checkConstraints(p *model.Product) error {
	switch {
	case p.Price < 0:
		return &repository.ConstraintViolationError{Code: checkViolationCode, Detail: "preco must not be negative"}
	case p.StockQuantity < 0:
		return &repository.ConstraintViolationError{Code: checkViolationCode, Detail: "quantidadeestoque must not be negative"}
	}
	return nil
}

func likeToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// EventRepository is the in-memory repository.EventRepository.
type EventRepository struct {
	store *Store
	inTx  bool
}

func (r *EventRepository) Create(_ context.Context, event *model.Event) (*model.Event, error) {
	defer r.store.guard(r.inTx)()

	event.InitMeta()
	r.store.events = append(r.store.events, *event)
	return event, nil
}

func (r *EventRepository) ListPending(_ context.Context, limit int) ([]*model.Event, error) {
	defer r.store.guard(r.inTx)()

	if limit <= 0 {
		limit = repository.DefaultPaginationLimit
	}

	var events []*model.Event
	for _, e := range r.store.events {
		if len(events) == limit {
			break
		}
		if e.Status == model.EventStatusPending {
			events = append(events, &e)
		}
	}
	return events, nil
}

func (r *EventRepository) UpdateStatus(_ context.Context, eventID uuid.UUID, status model.EventStatus) error {
	defer r.store.guard(r.inTx)()

	for i := range r.store.events {
		if r.store.events[i].ID == eventID {
			now := time.Now()
			r.store.events[i].Status = status
			r.store.events[i].ProcessedAt = &now
			return nil
		}
	}
	return fmt.Errorf("event %s: %w", eventID, repository.ErrNotFound)
}
