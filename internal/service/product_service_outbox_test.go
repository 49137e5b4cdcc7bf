package service_test

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/iyhunko/inventory-service/internal/model"
	reposql "github.com/iyhunko/inventory-service/internal/repository/sql"
	"github.com/iyhunko/inventory-service/internal/service"
	"github.com/iyhunko/inventory-service/internal/serviceerrors"
	"github.com/iyhunko/inventory-service/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLService(t *testing.T) (*service.ProductService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := service.NewProductService(reposql.NewProductRepository(db), reposql.NewTransactionalRepository(db), validation.New())
	return svc, mock
}

// TestCreateProduct_OutboxPattern verifies that product creation and event creation
// happen within the same transaction (outbox pattern).
func TestCreateProduct_OutboxPattern(t *testing.T) {
	ctx := context.Background()
	productService, mock := newSQLService(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO produto").
		ExpectQuery().
		WithArgs("Mouse", "Sem fio", 25.0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectPrepare("INSERT INTO events").
		ExpectExec().
		WithArgs(sqlmock.AnyArg(), model.EventProductCreated, sqlmock.AnyArg(), string(model.EventStatusPending), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	product, err := productService.Create(ctx, validInput())

	require.NoError(t, err)
	assert.Equal(t, int64(1), product.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCreateProduct_OutboxRollback verifies that the product insert is rolled back
// when the event cannot be recorded.
func TestCreateProduct_OutboxRollback(t *testing.T) {
	ctx := context.Background()
	productService, mock := newSQLService(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO produto").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectPrepare("INSERT INTO events").
		ExpectExec().
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	_, err := productService.Create(ctx, validInput())

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProduct_OutboxPattern(t *testing.T) {
	ctx := context.Background()

	t.Run("look up, delete and event share one transaction", func(t *testing.T) {
		productService, mock := newSQLService(t)

		mock.ExpectBegin()
		mock.ExpectPrepare("SELECT (.+) FROM produto WHERE id = \\$1").
			ExpectQuery().
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(productColumns).AddRow(int64(2), "Mouse", nil, 25.0, 10))
		mock.ExpectPrepare("DELETE FROM produto WHERE id = \\$1").
			ExpectExec().
			WithArgs(int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectPrepare("INSERT INTO events").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), model.EventProductDeleted, sqlmock.AnyArg(), string(model.EventStatusPending), sqlmock.AnyArg(), nil).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, productService.DeleteByID(ctx, 2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing product rolls back", func(t *testing.T) {
		productService, mock := newSQLService(t)

		mock.ExpectBegin()
		mock.ExpectPrepare("SELECT (.+) FROM produto WHERE id = \\$1").
			ExpectQuery().
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(productColumns))
		mock.ExpectRollback()

		err := productService.DeleteByID(ctx, 3)

		assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteByStockAtMost_SingleTransaction(t *testing.T) {
	ctx := context.Background()
	productService, mock := newSQLService(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("SELECT COUNT").
		ExpectQuery().
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectPrepare("DELETE FROM produto WHERE quantidadeestoque").
		ExpectExec().
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectPrepare("INSERT INTO events").
		ExpectExec().
		WithArgs(sqlmock.AnyArg(), model.EventProductDeletedByStock, sqlmock.AnyArg(), string(model.EventStatusPending), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	deleted, err := productService.DeleteByStockAtMost(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var productColumns = []string{"id", "nome", "descricao", "preco", "quantidadeestoque"}
