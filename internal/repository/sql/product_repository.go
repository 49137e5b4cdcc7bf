package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iyhunko/inventory-service/internal/model"
	"github.com/iyhunko/inventory-service/internal/repository"
)

// Column names of the products table.
const (
	productTable      = "produto"
	productColumns    = "id, nome, descricao, preco, quantidadeestoque"
	stockQuantityCol  = "quantidadeestoque"
	selectProductsSQL = "SELECT " + productColumns + " FROM " + productTable
)

// ProductRepository implements repository.ProductRepository on PostgreSQL.
type ProductRepository struct {
	conn
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{conn: conn{db: db}}
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var product model.Product
	var description sql.NullString
	if err := row.Scan(&product.ID, &product.Name, &description, &product.Price, &product.StockQuantity); err != nil {
		return nil, err
	}
	product.Description = description.String
	return &product, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// FindAll retrieves products ordered by ID, optionally paginated by the query.
func (r *ProductRepository) FindAll(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(selectProductsSQL + " WHERE 1=1")

	var args []interface{}
	argIndex := 1

	if query.Paginator != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND id > $%d", argIndex))
		args = append(args, query.Paginator.LastID)
		argIndex++
	}

	queryBuilder.WriteString(" ORDER BY id")

	if query.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argIndex))
		args = append(args, query.Limit)
	}

	return r.queryProducts(ctx, queryBuilder.String(), args...)
}

// FindByID retrieves a single product by ID.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	query := selectProductsSQL + ` WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	product, err := scanProduct(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return product, nil
}

// Save inserts a product without ID and updates an existing one otherwise.
func (r *ProductRepository) Save(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product.ID == 0 {
		return r.insert(ctx, product)
	}
	return r.update(ctx, product)
}

func (r *ProductRepository) insert(ctx context.Context, product *model.Product) (*model.Product, error) {
	query := `INSERT INTO produto (nome, descricao, preco, quantidadeestoque)
	          VALUES ($1, $2, $3, $4) RETURNING id`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	var id int64
	err = stmt.QueryRowContext(ctx, product.Name, nullString(product.Description), product.Price, product.StockQuantity).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", asConstraintViolation(err))
	}

	product.ID = id
	return product, nil
}

func (r *ProductRepository) update(ctx context.Context, product *model.Product) (*model.Product, error) {
	query := `UPDATE produto SET nome = $1, descricao = $2, preco = $3, quantidadeestoque = $4 WHERE id = $5`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, product.Name, nullString(product.Description), product.Price, product.StockQuantity, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", asConstraintViolation(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("product %d: %w", product.ID, repository.ErrNotFound)
	}

	return product, nil
}

// DeleteByID deletes a product by ID.
func (r *ProductRepository) DeleteByID(ctx context.Context, id int64) error {
	query := `DELETE FROM produto WHERE id = $1`

	rowsAffected, err := r.exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
	}

	return nil
}

// FindByNameLike retrieves products whose name matches pattern, ignoring case.
func (r *ProductRepository) FindByNameLike(ctx context.Context, pattern string) ([]*model.Product, error) {
	query := selectProductsSQL + ` WHERE nome ILIKE $1 ORDER BY id`
	return r.queryProducts(ctx, query, pattern)
}

// CountByStockAtMost counts products with a stock quantity less than or equal to qnt.
func (r *ProductRepository) CountByStockAtMost(ctx context.Context, qnt int) (int64, error) {
	query := `SELECT COUNT(*) FROM produto WHERE ` + stockQuantityCol + ` <= $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare count statement: %w", err)
	}
	defer stmt.Close()

	var count int64
	if err := stmt.QueryRowContext(ctx, qnt).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return count, nil
}

// DeleteByStockAtMost deletes products with a stock quantity less than or equal to qnt
// and returns how many were deleted.
func (r *ProductRepository) DeleteByStockAtMost(ctx context.Context, qnt int) (int64, error) {
	query := `DELETE FROM produto WHERE ` + stockQuantityCol + ` <= $1`

	rowsAffected, err := r.exec(ctx, query, qnt)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}

	return rowsAffected, nil
}

func (r *ProductRepository) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*model.Product, error) {
	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}
