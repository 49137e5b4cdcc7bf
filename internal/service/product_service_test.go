package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/iyhunko/inventory-service/internal/model"
	"github.com/iyhunko/inventory-service/internal/repository"
	"github.com/iyhunko/inventory-service/internal/service"
	"github.com/iyhunko/inventory-service/internal/serviceerrors"
	"github.com/iyhunko/inventory-service/internal/sqs"
	"github.com/iyhunko/inventory-service/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of repository.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindAll(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *model.Product) (*model.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) FindByNameLike(ctx context.Context, pattern string) ([]*model.Product, error) {
	args := m.Called(ctx, pattern)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockProductRepository) CountByStockAtMost(ctx context.Context, qnt int) (int64, error) {
	args := m.Called(ctx, qnt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) DeleteByStockAtMost(ctx context.Context, qnt int) (int64, error) {
	args := m.Called(ctx, qnt)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockEventRepository) ListPending(ctx context.Context, limit int) ([]*model.Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *MockEventRepository) UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error {
	args := m.Called(ctx, eventID, status)
	return args.Error(0)
}

// MockTransactor records the call and runs fn immediately with the mock repositories.
type MockTransactor struct {
	mock.Mock
	products *MockProductRepository
	events   *MockEventRepository
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(products repository.ProductRepository, events repository.EventRepository) error) error {
	m.Called(ctx)
	return fn(m.products, m.events)
}

type mocks struct {
	products *MockProductRepository
	events   *MockEventRepository
	tx       *MockTransactor
}

func newService(t *testing.T) (*service.ProductService, mocks) {
	t.Helper()
	m := mocks{
		products: new(MockProductRepository),
		events:   new(MockEventRepository),
	}
	m.tx = &MockTransactor{products: m.products, events: m.events}
	t.Cleanup(func() {
		m.products.AssertExpectations(t)
		m.events.AssertExpectations(t)
		m.tx.AssertExpectations(t)
	})
	return service.NewProductService(m.products, m.tx, validation.New()), m
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e *model.Event) bool {
		return e.EventType == eventType
	})
}

func ptr[T any](v T) *T {
	return &v
}

func validInput() model.ProductInput {
	return model.ProductInput{
		Name:          ptr("Mouse"),
		Description:   ptr("Sem fio"),
		Price:         ptr(25.0),
		StockQuantity: ptr(10),
	}
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("persists product and created event", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("Save", ctx, mock.AnythingOfType("*model.Product")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*model.Product).ID = 10
			}).
			Return(&model.Product{}, nil)
		m.events.On("Create", ctx, mock.MatchedBy(func(e *model.Event) bool {
			var msg sqs.ProductMessage
			if err := json.Unmarshal(e.EventData, &msg); err != nil {
				return false
			}
			return e.EventType == model.EventProductCreated && msg.ProductID == 10 && msg.Action == sqs.ActionCreated
		})).Return(&model.Event{}, nil)

		created, err := svc.Create(ctx, validInput())

		require.NoError(t, err)
		assert.Equal(t, &model.Product{ID: 10, Name: "Mouse", Description: "Sem fio", Price: 25, StockQuantity: 10}, created)
	})

	t.Run("validation failure touches no repository", func(t *testing.T) {
		svc, _ := newService(t)

		in := validInput()
		in.Name = ptr("M")
		in.Price = nil

		created, err := svc.Create(ctx, in)

		assert.Nil(t, created)
		var svcErr *serviceerrors.ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, serviceerrors.KindValidation, svcErr.Kind)
		assert.Equal(t, map[string]string{
			"nome":  "O nome deve ter no mínimo 2 caracteres!",
			"preco": "O preço não pode ser nulo!",
		}, svcErr.Fields)
	})

	t.Run("constraint violation maps to bad request", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("Save", ctx, mock.AnythingOfType("*model.Product")).
			Return(nil, fmt.Errorf("failed to insert product: %w", &repository.ConstraintViolationError{Code: "23502"}))

		_, err := svc.Create(ctx, validInput())

		require.Error(t, err)
		assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindBadRequest))
		assert.Equal(t, "Produto não inserido! ☹️ Detectamos um campo nulo na requisição", err.Error())
	})

	t.Run("event failure is an internal error", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("Save", ctx, mock.AnythingOfType("*model.Product")).Return(&model.Product{}, nil)
		m.events.On("Create", ctx, eventOfType(model.EventProductCreated)).Return(nil, assert.AnError)

		_, err := svc.Create(ctx, validInput())

		require.ErrorIs(t, err, assert.AnError)
		var svcErr *serviceerrors.ServiceError
		assert.False(t, errors.As(err, &svcErr))
	})
}

func TestGetProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		svc, m := newService(t)
		product := &model.Product{ID: 1, Name: "Mouse"}
		m.products.On("FindByID", ctx, int64(1)).Return(product, nil)

		got, err := svc.GetByID(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, product, got)
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newService(t)
		m.products.On("FindByID", ctx, int64(2)).Return(nil, fmt.Errorf("product 2: %w", repository.ErrNotFound))

		_, err := svc.GetByID(ctx, 2)

		assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindNotFound))
		assert.Equal(t, "Produto não encontrado! ☹️", err.Error())
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes and records event", func(t *testing.T) {
		svc, m := newService(t)
		product := &model.Product{ID: 3, Name: "Mouse", Price: 25}

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("FindByID", ctx, int64(3)).Return(product, nil)
		m.products.On("DeleteByID", ctx, int64(3)).Return(nil)
		m.events.On("Create", ctx, eventOfType(model.EventProductDeleted)).Return(&model.Event{}, nil)

		err := svc.DeleteByID(ctx, 3)

		require.NoError(t, err)
	})

	t.Run("missing product", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("FindByID", ctx, int64(4)).Return(nil, repository.ErrNotFound)

		err := svc.DeleteByID(ctx, 4)

		assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindNotFound))
		assert.Equal(t, "Produto não excluido! ☹️", err.Error())
	})

	t.Run("removed concurrently after look up", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("FindByID", ctx, int64(5)).Return(&model.Product{ID: 5}, nil)
		m.products.On("DeleteByID", ctx, int64(5)).Return(repository.ErrNotFound)

		err := svc.DeleteByID(ctx, 5)

		assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindNotFound))
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites every field", func(t *testing.T) {
		svc, m := newService(t)
		existing := &model.Product{ID: 6, Name: "Mouse", Description: "Sem fio", Price: 25, StockQuantity: 10}

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("FindByID", ctx, int64(6)).Return(existing, nil)
		m.products.On("Save", ctx, &model.Product{ID: 6, Name: "Teclado", Price: 80, StockQuantity: 2}).
			Return(&model.Product{}, nil)
		m.events.On("Create", ctx, eventOfType(model.EventProductUpdated)).Return(&model.Event{}, nil)

		err := svc.Update(ctx, 6, model.ProductInput{Name: ptr("Teclado"), Price: ptr(80.0), StockQuantity: ptr(2)})

		require.NoError(t, err)
	})

	t.Run("validation runs on the merged product", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("FindByID", ctx, int64(6)).Return(&model.Product{ID: 6, Name: "Mouse", Price: 25}, nil)

		err := svc.Update(ctx, 6, model.ProductInput{Name: ptr("Teclado"), Price: ptr(-1.0)})

		var svcErr *serviceerrors.ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, serviceerrors.KindValidation, svcErr.Kind)
		assert.Equal(t, map[string]string{
			"preco":      "O preço deve ser pelo menos 0!",
			"qntEstoque": "O estoque não pode ser nulo!",
		}, svcErr.Fields)
	})

	t.Run("missing product", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("FindByID", ctx, int64(7)).Return(nil, repository.ErrNotFound)

		err := svc.Update(ctx, 7, validInput())

		assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindNotFound))
		assert.Equal(t, "Produto com ID 7 não encontrado ☹️", err.Error())
	})
	t.Run("value rejected by the store maps to bad request", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("FindByID", ctx, int64(6)).Return(&model.Product{ID: 6, Name: "Mouse", Price: 25, StockQuantity: 1}, nil)
		m.products.On("Save", ctx, mock.AnythingOfType("*model.Product")).
			Return(nil, fmt.Errorf("failed to update product: %w", &repository.ConstraintViolationError{Code: "22001"}))

		err := svc.Update(ctx, 6, validInput())

		assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindBadRequest))
		assert.Equal(t, "Produto não atualizado! ☹️ O banco recusou os valores enviados", err.Error())

		changed, err := svc.PartialUpdate(ctx, 6, map[string]any{"nome": "Mouse Sem Fio"})

		assert.Zero(t, changed)
		assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindBadRequest))
	})
}

func TestFindByName(t *testing.T) {
	ctx := context.Background()

	t.Run("wraps the name in wildcards", func(t *testing.T) {
		svc, m := newService(t)
		products := []*model.Product{{ID: 1, Name: "Mouse"}}
		m.products.On("FindByNameLike", ctx, "%mou%").Return(products, nil)

		got, err := svc.FindByName(ctx, "mou")

		require.NoError(t, err)
		assert.Equal(t, products, got)
	})

	t.Run("no match", func(t *testing.T) {
		svc, m := newService(t)
		m.products.On("FindByNameLike", ctx, "%zzz%").Return([]*model.Product{}, nil)

		_, err := svc.FindByName(ctx, "zzz")

		assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindNotFound))
		assert.Equal(t, "Produtos não encontrados", err.Error())
	})
}

func TestDeleteByStockAtMost(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing matches", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("CountByStockAtMost", ctx, 0).Return(int64(0), nil)

		deleted, err := svc.DeleteByStockAtMost(ctx, 0)

		require.NoError(t, err)
		assert.Zero(t, deleted)
		m.products.AssertNotCalled(t, "DeleteByStockAtMost", mock.Anything, mock.Anything)
	})

	t.Run("reports rows actually deleted", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("CountByStockAtMost", ctx, 5).Return(int64(3), nil)
		m.products.On("DeleteByStockAtMost", ctx, 5).Return(int64(2), nil)
		m.events.On("Create", ctx, mock.MatchedBy(func(e *model.Event) bool {
			var msg sqs.ProductMessage
			if err := json.Unmarshal(e.EventData, &msg); err != nil {
				return false
			}
			return e.EventType == model.EventProductDeletedByStock && msg.Count == 2 && msg.StockQuantity == 5
		})).Return(&model.Event{}, nil)

		deleted, err := svc.DeleteByStockAtMost(ctx, 5)

		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, m := newService(t)

		m.tx.On("WithinTransaction", ctx).Return(nil)
		m.products.On("CountByStockAtMost", ctx, 5).Return(int64(0), assert.AnError)

		_, err := svc.DeleteByStockAtMost(ctx, 5)

		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestCountByStockAtMost(t *testing.T) {
	ctx := context.Background()
	svc, m := newService(t)
	m.products.On("CountByStockAtMost", ctx, 9).Return(int64(4), nil)

	count, err := svc.CountByStockAtMost(ctx, 9)

	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestListProducts(t *testing.T) {
	ctx := context.Background()
	svc, m := newService(t)

	products := []*model.Product{
		{ID: 1, Name: "Product 1", Price: 10.0},
		{ID: 2, Name: "Product 2", Price: 20.0},
	}

	query := repository.NewQuery()
	m.products.On("FindAll", ctx, *query).Return(products, nil)

	results, err := svc.ListAll(ctx, *query)

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "Product 1", results[0].Name)
	assert.Equal(t, "Product 2", results[1].Name)
}
